package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/airchieve/airchieve_go_server/internal/model"
	"github.com/airchieve/airchieve_go_server/internal/model/dto"
	"github.com/airchieve/airchieve_go_server/internal/pkg/response"
	"github.com/airchieve/airchieve_go_server/internal/service"
)

type AdminHandler struct {
	pointsService  *service.PointsService
	paymentService *service.PaymentService
}

func NewAdminHandler(pointsService *service.PointsService, paymentService *service.PaymentService) *AdminHandler {
	return &AdminHandler{
		pointsService:  pointsService,
		paymentService: paymentService,
	}
}

// AdjustPoints 手动增减用户积分
// POST /api/v1/admin/users/:id/points
func (h *AdminHandler) AdjustPoints(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的用户ID")
		return
	}

	var req dto.AdminAdjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.pointsService.AdminAdjust(targetID, req.Delta, req.Description); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrInsufficientPoints):
			response.PointsError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "积分已调整", nil)
}

// SetMembership 直接设置用户会员等级与到期时间
// POST /api/v1/admin/users/:id/membership
func (h *AdminHandler) SetMembership(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的用户ID")
		return
	}

	var req dto.AdminSetMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	var expireAt *time.Time
	if req.Level != model.MembershipFree {
		if req.ExpireAt == "" {
			response.ParamError(c, "付费等级必须指定到期时间")
			return
		}
		t, err := time.Parse(time.RFC3339, req.ExpireAt)
		if err != nil {
			response.ParamError(c, "到期时间格式错误，应为 RFC3339")
			return
		}
		expireAt = &t
	}

	if err := h.paymentService.AdminSetMembership(targetID, req.Level, expireAt); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "会员已设置", nil)
}
