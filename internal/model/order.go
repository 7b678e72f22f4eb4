package model

import (
	"time"
)

// 充值订单状态
const (
	RechargeStatusPending  = "pending"  // 待支付
	RechargeStatusPaid     = "paid"     // 已支付
	RechargeStatusFailed   = "failed"   // 支付失败
	RechargeStatusRefunded = "refunded" // 已退款
)

// 订阅订单状态
const (
	SubscriptionStatusPending   = "pending"   // 待支付
	SubscriptionStatusActive    = "active"    // 生效中
	SubscriptionStatusExpired   = "expired"   // 已到期
	SubscriptionStatusCancelled = "cancelled" // 已取消
)

// RechargeOrder 积分充值订单
//
// 换算：points_amount = amount_fen / 100 * points_per_yuan（向下取整）。
// 状态只允许 pending → paid / failed，paid → refunded。
type RechargeOrder struct {
	ID                  int64      `gorm:"primaryKey" json:"id"`
	UserID              int64      `gorm:"not null;index" json:"user_id"`
	OrderNo             string     `gorm:"size:64;uniqueIndex;not null" json:"order_no"`
	AmountFen           int64      `gorm:"not null" json:"amount_fen"`    // 支付金额（分）
	PointsAmount        int        `gorm:"not null" json:"points_amount"` // 到账积分
	Status              string     `gorm:"size:20;default:pending;not null;index" json:"status"`
	WechatTransactionID *string    `gorm:"size:64" json:"wechat_transaction_id,omitempty"`
	CreatedAt           time.Time  `gorm:"index" json:"created_at"`
	PaidAt              *time.Time `json:"paid_at,omitempty"`
}

func (RechargeOrder) TableName() string {
	return "recharge_orders"
}

// SubscriptionOrder 会员订阅订单
//
// 支付成功后 status → active，回填 start_at / expire_at，
// 并同事务更新 User.membership_level / membership_expire_at。
type SubscriptionOrder struct {
	ID                  int64      `gorm:"primaryKey" json:"id"`
	UserID              int64      `gorm:"not null;index" json:"user_id"`
	OrderNo             string     `gorm:"size:64;uniqueIndex;not null" json:"order_no"`
	Level               string     `gorm:"size:20;not null" json:"level"` // lite / pro / max
	Months              int        `gorm:"not null" json:"months"`
	AmountFen           int64      `gorm:"not null" json:"amount_fen"`
	Status              string     `gorm:"size:20;default:pending;not null;index" json:"status"`
	WechatTransactionID *string    `gorm:"size:64" json:"wechat_transaction_id,omitempty"`
	StartAt             *time.Time `json:"start_at,omitempty"`
	ExpireAt            *time.Time `json:"expire_at,omitempty"`
	CreatedAt           time.Time  `gorm:"index" json:"created_at"`
	PaidAt              *time.Time `json:"paid_at,omitempty"`
}

func (SubscriptionOrder) TableName() string {
	return "subscription_orders"
}
