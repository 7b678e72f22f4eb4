package model

import (
	"time"
)

// 会员等级（订阅制：lite / pro / max，按月购买）
const (
	MembershipFree = "free"
	MembershipLite = "lite"
	MembershipPro  = "pro"
	MembershipMax  = "max"
)

// IsPaidMembership 是否为可购买的付费等级
func IsPaidMembership(level string) bool {
	switch level {
	case MembershipLite, MembershipPro, MembershipMax:
		return true
	}
	return false
}

// 用户角色
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User 用户主表
//
// 基础信息（nickname / avatar_url / role）由用户服务写入。
// points_balance / free_creation_remaining 由积分服务写入，
// membership_level / membership_expire_at 由支付服务写入，
// 其余子系统对这些缓存字段只读不写。
type User struct {
	ID           int64   `gorm:"primaryKey" json:"id"`
	Nickname     string  `gorm:"size:64;not null" json:"nickname"`
	AvatarURL    string  `gorm:"size:512" json:"avatar_url"`
	Role         string  `gorm:"size:20;default:user" json:"role"`
	Phone        *string `gorm:"size:20;uniqueIndex" json:"-"`
	PasswordHash *string `gorm:"size:255" json:"-"`
	WechatOpenID *string `gorm:"column:wechat_openid;size:100;uniqueIndex" json:"-"`

	// 积分域缓存（points_service 负责写）
	PointsBalance         int `gorm:"default:0;not null" json:"points_balance"`
	FreeCreationRemaining int `gorm:"default:1;not null" json:"free_creation_remaining"`

	// 支付域缓存（payment_service 负责写）
	MembershipLevel    string     `gorm:"size:20;default:free;not null" json:"membership_level"`
	MembershipExpireAt *time.Time `json:"membership_expire_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
