package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/airchieve/airchieve_go_server/internal/api/middleware"
	"github.com/airchieve/airchieve_go_server/internal/model/dto"
	"github.com/airchieve/airchieve_go_server/internal/pkg/response"
	"github.com/airchieve/airchieve_go_server/internal/service"
)

type UserHandler struct {
	userService   *service.UserService
	pointsService *service.PointsService
}

func NewUserHandler(userService *service.UserService, pointsService *service.PointsService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		pointsService: pointsService,
	}
}

// pageParams 解析分页参数（page 从 1 开始）
func pageParams(c *gin.Context) (limit, offset int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return pageSize, (page - 1) * pageSize
}

// GetProfile 获取当前用户信息
// GET /api/v1/user/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	info, err := h.userService.GetProfile(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, info)
}

// UpdateNickname 修改昵称
// PUT /api/v1/user/nickname
func (h *UserHandler) UpdateNickname(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req struct {
		Nickname string `json:"nickname" binding:"required,min=2,max=64"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.userService.UpdateNickname(userID, req.Nickname); err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "昵称已更新", nil)
}

// BindPhone 绑定手机号
// POST /api/v1/user/bind-phone
func (h *UserHandler) BindPhone(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.BindPhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.userService.BindPhone(c.Request.Context(), userID, &req); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidVerifyCode):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrPhoneExists):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "绑定成功", nil)
}

// GetPointsOverview 积分余额与免费创作次数
// GET /api/v1/user/points
func (h *UserHandler) GetPointsOverview(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	overview, err := h.pointsService.GetOverview(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, overview)
}

// GetPointsHistory 积分流水（按时间倒序分页）
// GET /api/v1/user/points/history
func (h *UserHandler) GetPointsHistory(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	limit, offset := pageParams(c)

	logs, err := h.pointsService.GetHistory(userID, limit, offset)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"items": logs})
}

// CheckCreationQuota 创作前额度检查（不扣费）
// GET /api/v1/user/points/check-creation
func (h *UserHandler) CheckCreationQuota(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.pointsService.CheckCreationPoints(userID); err != nil {
		if errors.Is(err, service.ErrInsufficientPoints) {
			response.PointsError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"allowed": true})
}
