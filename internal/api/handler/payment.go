package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/airchieve/airchieve_go_server/internal/api/middleware"
	"github.com/airchieve/airchieve_go_server/internal/model/dto"
	"github.com/airchieve/airchieve_go_server/internal/pkg/response"
	"github.com/airchieve/airchieve_go_server/internal/pkg/wechatpay"
	"github.com/airchieve/airchieve_go_server/internal/repository"
	"github.com/airchieve/airchieve_go_server/internal/service"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
}

func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// CreateRecharge 创建积分充值订单
// POST /api/v1/payment/recharge
func (h *PaymentHandler) CreateRecharge(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.CreateRechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}
	if req.ClientIP == "" {
		req.ClientIP = c.ClientIP()
	}

	resp, err := h.paymentService.CreateRechargeOrder(c.Request.Context(), userID, &req)
	if err != nil {
		h.writeOrderError(c, err)
		return
	}

	response.Success(c, resp)
}

// CreateSubscription 创建会员订阅订单
// POST /api/v1/payment/subscription
func (h *PaymentHandler) CreateSubscription(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}
	if req.ClientIP == "" {
		req.ClientIP = c.ClientIP()
	}

	resp, err := h.paymentService.CreateSubscriptionOrder(c.Request.Context(), userID, &req)
	if err != nil {
		h.writeOrderError(c, err)
		return
	}

	response.Success(c, resp)
}

func (h *PaymentHandler) writeOrderError(c *gin.Context, err error) {
	var providerErr *wechatpay.ProviderError
	switch {
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidLevel),
		errors.Is(err, service.ErrInvalidMonths):
		response.ParamError(c, err.Error())
	case errors.As(err, &providerErr):
		response.ProviderError(c, providerErr.Message)
	default:
		response.ServerError(c, "")
	}
}

// GetRechargeStatus 充值订单状态（前端轮询）
// GET /api/v1/payment/recharge/:orderNo
func (h *PaymentHandler) GetRechargeStatus(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	orderNo := c.Param("orderNo")

	resp, err := h.paymentService.GetRechargeStatus(userID, orderNo)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, resp)
}

// GetSubscriptionStatus 订阅订单状态（前端轮询）
// GET /api/v1/payment/subscription/:orderNo
func (h *PaymentHandler) GetSubscriptionStatus(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	orderNo := c.Param("orderNo")

	resp, err := h.paymentService.GetSubscriptionStatus(userID, orderNo)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, resp)
}

// ListRecharges 充值订单历史
// GET /api/v1/payment/recharges
func (h *PaymentHandler) ListRecharges(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	limit, offset := pageParams(c)

	orders, err := h.paymentService.ListRechargeOrders(userID, limit, offset)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"items": orders})
}

// ListSubscriptions 订阅订单历史
// GET /api/v1/payment/subscriptions
func (h *PaymentHandler) ListSubscriptions(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	limit, offset := pageParams(c)

	orders, err := h.paymentService.ListSubscriptionOrders(userID, limit, offset)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{"items": orders})
}

// RechargeNotify 微信支付充值回调。
// 应答必须是微信规定的 {code, message} 结构：
// 处理成功（含重复回调）应答 SUCCESS，失败应答 FAIL 触发微信重试。
// POST /api/v1/payment/notify/recharge
func (h *PaymentHandler) RechargeNotify(c *gin.Context) {
	h.handleNotify(c, h.paymentService.HandleRechargeNotify)
}

// SubscriptionNotify 微信支付订阅回调
// POST /api/v1/payment/notify/subscription
func (h *PaymentHandler) SubscriptionNotify(c *gin.Context) {
	h.handleNotify(c, h.paymentService.HandleSubscriptionNotify)
}

func (h *PaymentHandler) handleNotify(c *gin.Context, settle func([]byte) error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NotifyResponse{Code: "FAIL", Message: "读取请求体失败"})
		return
	}

	if err := settle(body); err != nil {
		c.JSON(http.StatusInternalServerError, dto.NotifyResponse{Code: "FAIL", Message: "处理失败"})
		return
	}

	c.JSON(http.StatusOK, dto.NotifyResponse{Code: "SUCCESS", Message: ""})
}
