package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/airchieve/airchieve_go_server/internal/model"
)

func TestNextMembership_SameTierRenewal(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	expire := now.Add(10 * 24 * time.Hour) // pro 还剩 10 天

	got := NextMembership(model.MembershipPro, &expire, model.MembershipPro, 1, now)

	// 续费同级：在原到期时间上追加 30 天
	assert.Equal(t, expire.Add(30*24*time.Hour), got)
}

func TestNextMembership_Upgrade(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	expire := now.Add(10 * 24 * time.Hour) // lite 还剩 10 天

	got := NextMembership(model.MembershipLite, &expire, model.MembershipPro, 1, now)

	// 升级：从 now 重新起算，不叠加旧剩余
	assert.Equal(t, now.Add(30*24*time.Hour), got)
}

func TestNextMembership_Downgrade(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	expire := now.Add(20 * 24 * time.Hour)

	got := NextMembership(model.MembershipMax, &expire, model.MembershipLite, 2, now)

	assert.Equal(t, now.Add(60*24*time.Hour), got)
}

func TestNextMembership_FirstPurchase(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	got := NextMembership(model.MembershipFree, nil, model.MembershipLite, 3, now)

	assert.Equal(t, now.Add(90*24*time.Hour), got)
}

func TestNextMembership_LapsedSameTier(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	expire := now.Add(-24 * time.Hour) // 已过期

	got := NextMembership(model.MembershipPro, &expire, model.MembershipPro, 1, now)

	// 已过期视同重新购买
	assert.Equal(t, now.Add(30*24*time.Hour), got)
}

func TestNextMembership_MultiMonth(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	expire := now.Add(5 * 24 * time.Hour)

	got := NextMembership(model.MembershipPro, &expire, model.MembershipPro, 12, now)

	assert.Equal(t, expire.Add(360*24*time.Hour), got)
}
