package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/airchieve/airchieve_go_server/internal/model"
)

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	phone := fmt.Sprintf("138%08d", time.Now().UnixNano()%100000000)
	user := &model.User{
		Nickname:              fmt.Sprintf("testuser_%d", time.Now().UnixNano()%10000),
		Role:                  model.RoleUser,
		Phone:                 &phone,
		PointsBalance:         0,
		FreeCreationRemaining: 0,
		MembershipLevel:       model.MembershipFree,
	}

	for _, opt := range opts {
		opt(user)
	}

	// gorm 对带 default 标签的零值字段不写入且会把数据库默认值回填到结构体
	// （free_creation_remaining 默认 1），先记下 fixture 声明的值，插入后强制落库
	freeCreations := user.FreeCreationRemaining

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	if err := db.Model(user).UpdateColumn("free_creation_remaining", freeCreations).Error; err != nil {
		t.Fatalf("Failed to set free_creation_remaining on test user: %v", err)
	}
	user.FreeCreationRemaining = freeCreations

	return user
}

// WithPoints 设置积分余额
func WithPoints(balance int) func(*model.User) {
	return func(u *model.User) {
		u.PointsBalance = balance
	}
}

// WithFreeCreations 设置免费创作次数
func WithFreeCreations(n int) func(*model.User) {
	return func(u *model.User) {
		u.FreeCreationRemaining = n
	}
}

// WithMembership 设置会员等级与到期时间
func WithMembership(level string, expireAt time.Time) func(*model.User) {
	return func(u *model.User) {
		u.MembershipLevel = level
		u.MembershipExpireAt = &expireAt
	}
}

// WithRole 设置角色
func WithRole(role string) func(*model.User) {
	return func(u *model.User) {
		u.Role = role
	}
}

// WithPhone 设置手机号
func WithPhone(phone string) func(*model.User) {
	return func(u *model.User) {
		u.Phone = &phone
	}
}

// TestRechargeOrder 创建测试充值订单
func TestRechargeOrder(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.RechargeOrder)) *model.RechargeOrder {
	t.Helper()

	order := &model.RechargeOrder{
		UserID:       userID,
		OrderNo:      fmt.Sprintf("RC%d", time.Now().UnixNano()),
		AmountFen:    1000,
		PointsAmount: 30,
		Status:       model.RechargeStatusPending,
	}

	for _, opt := range opts {
		opt(order)
	}

	if err := db.Create(order).Error; err != nil {
		t.Fatalf("Failed to create test recharge order: %v", err)
	}

	return order
}

// WithRechargeStatus 设置充值订单状态
func WithRechargeStatus(status string) func(*model.RechargeOrder) {
	return func(o *model.RechargeOrder) {
		o.Status = status
	}
}

// WithRechargeAmount 设置金额与到账积分
func WithRechargeAmount(amountFen int64, points int) func(*model.RechargeOrder) {
	return func(o *model.RechargeOrder) {
		o.AmountFen = amountFen
		o.PointsAmount = points
	}
}

// WithRechargeOrderNo 设置订单号
func WithRechargeOrderNo(orderNo string) func(*model.RechargeOrder) {
	return func(o *model.RechargeOrder) {
		o.OrderNo = orderNo
	}
}

// TestSubscriptionOrder 创建测试订阅订单
func TestSubscriptionOrder(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.SubscriptionOrder)) *model.SubscriptionOrder {
	t.Helper()

	order := &model.SubscriptionOrder{
		UserID:    userID,
		OrderNo:   fmt.Sprintf("SUB%d", time.Now().UnixNano()),
		Level:     model.MembershipPro,
		Months:    1,
		AmountFen: 2900,
		Status:    model.SubscriptionStatusPending,
	}

	for _, opt := range opts {
		opt(order)
	}

	if err := db.Create(order).Error; err != nil {
		t.Fatalf("Failed to create test subscription order: %v", err)
	}

	return order
}

// WithSubscriptionLevel 设置购买等级与月数
func WithSubscriptionLevel(level string, months int) func(*model.SubscriptionOrder) {
	return func(o *model.SubscriptionOrder) {
		o.Level = level
		o.Months = months
	}
}

// WithSubscriptionStatus 设置订阅订单状态
func WithSubscriptionStatus(status string) func(*model.SubscriptionOrder) {
	return func(o *model.SubscriptionOrder) {
		o.Status = status
	}
}
