package dto

// SendCodeRequest 发送短信验证码请求
type SendCodeRequest struct {
	Phone string `json:"phone" binding:"required,len=11"`
}

// SmsLoginRequest 手机验证码登录请求
type SmsLoginRequest struct {
	Phone string `json:"phone" binding:"required,len=11"`
	Code  string `json:"code" binding:"required"`
}

// RegisterRequest 账号密码注册请求
type RegisterRequest struct {
	Nickname string `json:"nickname" binding:"required,min=2,max=64"`
	Phone    string `json:"phone" binding:"required,len=11"`
	Password string `json:"password" binding:"required,min=8,max=32"`
}

// LoginRequest 账号密码登录请求
type LoginRequest struct {
	Phone    string `json:"phone" binding:"required,len=11"`
	Password string `json:"password" binding:"required"`
}

// BindPhoneRequest 绑定手机号请求
type BindPhoneRequest struct {
	Phone string `json:"phone" binding:"required,len=11"`
	Code  string `json:"code" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token string    `json:"token"`
	User  *UserInfo `json:"user"`
}

// UserInfo 用户信息（返回给前端）
type UserInfo struct {
	ID                    int64  `json:"id"`
	Nickname              string `json:"nickname"`
	AvatarURL             string `json:"avatar_url"`
	Role                  string `json:"role"`
	PointsBalance         int    `json:"points_balance"`
	FreeCreationRemaining int    `json:"free_creation_remaining"`
	MembershipLevel       string `json:"membership_level"`
	MembershipExpireAt    string `json:"membership_expire_at,omitempty"`
	CreatedAt             string `json:"created_at,omitempty"`
}
