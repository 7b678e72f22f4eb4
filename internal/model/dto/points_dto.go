package dto

// PointsOverview 积分余额概览
type PointsOverview struct {
	Balance               int `json:"balance"`
	FreeCreationRemaining int `json:"free_creation_remaining"`
}

// PointsLogInfo 积分流水项
type PointsLogInfo struct {
	ID             int64  `json:"id"`
	Delta          int    `json:"delta"`
	Type           string `json:"type"`
	Description    string `json:"description,omitempty"`
	BalanceAfter   int    `json:"balance_after"`
	RelatedOrderNo string `json:"related_order_no,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// AdminAdjustPointsRequest 管理员调整积分请求
type AdminAdjustPointsRequest struct {
	Delta       int    `json:"delta" binding:"required"`
	Description string `json:"description" binding:"required,max=256"`
}
