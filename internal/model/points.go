package model

import (
	"time"
)

// 积分流水类型
const (
	PointsLogRecharge     = "recharge"      // 微信支付充值
	PointsLogCreationCost = "creation_cost" // 绘本创作消耗
	PointsLogBonus        = "bonus"         // 平台奖励（注册礼包等）
	PointsLogRefund       = "refund"        // 退款返还
	PointsLogAdminAdjust  = "admin_adjust"  // 管理员手动调整
)

// UserPointsLog 积分流水表
//
// 每次积分变动写一条记录，只增不改。balance_after 是变动后的余额快照，
// 按 created_at 排列时满足 balance_after = 上一条 balance_after + delta，
// 最新一条与 User.points_balance 一致。
type UserPointsLog struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	UserID         int64     `gorm:"not null;index" json:"user_id"`
	Delta          int       `gorm:"not null" json:"delta"` // 正=收入 负=支出
	Type           string    `gorm:"size:20;not null" json:"type"`
	Description    *string   `gorm:"size:256" json:"description,omitempty"`
	BalanceAfter   int       `gorm:"not null" json:"balance_after"`
	RelatedOrderNo *string   `gorm:"size:64;index" json:"related_order_no,omitempty"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

func (UserPointsLog) TableName() string {
	return "user_points_log"
}
