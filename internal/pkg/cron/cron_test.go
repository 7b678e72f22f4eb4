package cron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airchieve/airchieve_go_server/config"
	"github.com/airchieve/airchieve_go_server/internal/model"
	"github.com/airchieve/airchieve_go_server/internal/repository"
	"github.com/airchieve/airchieve_go_server/internal/testutil"
)

func TestSweeperRunOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)
	cfg := &config.Config{Orders: config.OrdersConfig{PendingTimeoutMinutes: 15}}
	sweeper := NewSweeper(orderRepo, userRepo, cfg, time.Minute)

	now := time.Now().UTC()
	user := testutil.TestUser(t, db, testutil.WithMembership(model.MembershipPro, now.Add(-time.Hour)))
	stale := testutil.TestRechargeOrder(t, db, user.ID)
	staleSub := testutil.TestSubscriptionOrder(t, db, user.ID)

	// created_at 刚写入，推到未来让超时窗口覆盖
	sweeper.RunOnce(now.Add(16 * time.Minute))

	got, err := orderRepo.GetRechargeByOrderNo(stale.OrderNo)
	require.NoError(t, err)
	assert.Equal(t, model.RechargeStatusFailed, got.Status)

	gotSub, err := orderRepo.GetSubscriptionByOrderNo(staleSub.OrderNo)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStatusCancelled, gotSub.Status)

	gotUser, err := userRepo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MembershipFree, gotUser.MembershipLevel)
}

func TestSweeperRunOnce_LeavesFreshOrders(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)
	cfg := &config.Config{Orders: config.OrdersConfig{PendingTimeoutMinutes: 15}}
	sweeper := NewSweeper(orderRepo, userRepo, cfg, time.Minute)

	user := testutil.TestUser(t, db)
	fresh := testutil.TestRechargeOrder(t, db, user.ID)

	sweeper.RunOnce(time.Now().UTC())

	got, err := orderRepo.GetRechargeByOrderNo(fresh.OrderNo)
	require.NoError(t, err)
	assert.Equal(t, model.RechargeStatusPending, got.Status)
}
