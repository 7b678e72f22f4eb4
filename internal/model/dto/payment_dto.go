package dto

// CreateRechargeRequest 创建充值订单请求
type CreateRechargeRequest struct {
	AmountFen  int64  `json:"amount_fen" binding:"required,gt=0"`              // 支付金额（分），如 1000 = 10元
	PayChannel string `json:"pay_channel" binding:"omitempty,oneof=h5 native"` // h5=手机 native=PC扫码
	ClientIP   string `json:"client_ip" binding:"omitempty,ip"`                // H5 支付时需传客户端真实 IP
}

// CreateSubscriptionRequest 创建订阅订单请求
type CreateSubscriptionRequest struct {
	Level      string `json:"level" binding:"required,oneof=lite pro max"`
	Months     int    `json:"months" binding:"required,min=1,max=12"`
	AmountFen  int64  `json:"amount_fen" binding:"required,gt=0"`
	PayChannel string `json:"pay_channel" binding:"omitempty,oneof=h5 native"`
	ClientIP   string `json:"client_ip" binding:"omitempty,ip"`
}

// PayOrderResponse 下单结果，前端凭此拉起支付
type PayOrderResponse struct {
	OrderNo string `json:"order_no"`
	PayType string `json:"pay_type"`           // h5 | native
	H5URL   string `json:"h5_url,omitempty"`   // H5 跳转链接
	CodeURL string `json:"code_url,omitempty"` // Native 二维码内容
}

// OrderStatusResponse 订单状态（前端轮询）
type OrderStatusResponse struct {
	OrderNo string `json:"order_no"`
	Status  string `json:"status"`
}

// RechargeOrderInfo 充值订单列表项
type RechargeOrderInfo struct {
	OrderNo      string `json:"order_no"`
	AmountFen    int64  `json:"amount_fen"`
	PointsAmount int    `json:"points_amount"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	PaidAt       string `json:"paid_at,omitempty"`
}

// SubscriptionOrderInfo 订阅订单列表项
type SubscriptionOrderInfo struct {
	OrderNo   string `json:"order_no"`
	Level     string `json:"level"`
	Months    int    `json:"months"`
	AmountFen int64  `json:"amount_fen"`
	Status    string `json:"status"`
	StartAt   string `json:"start_at,omitempty"`
	ExpireAt  string `json:"expire_at,omitempty"`
	CreatedAt string `json:"created_at"`
}

// NotifyResponse 微信回调应答（微信要求固定结构）
type NotifyResponse struct {
	Code    string `json:"code"` // SUCCESS | FAIL
	Message string `json:"message"`
}

// AdminSetMembershipRequest 管理员设置会员等级
type AdminSetMembershipRequest struct {
	Level    string `json:"level" binding:"required,oneof=free lite pro max"`
	ExpireAt string `json:"expire_at" binding:"omitempty"` // RFC3339，free 时可空
}
