package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/airchieve/airchieve_go_server/internal/model/dto"
	"github.com/airchieve/airchieve_go_server/internal/pkg/oauth"
	"github.com/airchieve/airchieve_go_server/internal/pkg/response"
	"github.com/airchieve/airchieve_go_server/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
	stateStore  *oauth.StateStore
}

func NewAuthHandler(authService *service.AuthService, stateStore *oauth.StateStore) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		stateStore:  stateStore,
	}
}

// SendCode 发送短信验证码
// POST /api/v1/auth/send-code
func (h *AuthHandler) SendCode(c *gin.Context) {
	var req dto.SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.authService.SendSmsCode(c.Request.Context(), req.Phone); err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "验证码已发送", nil)
}

// SmsLogin 手机验证码登录（未注册自动创建账号）
// POST /api/v1/auth/sms-login
func (h *AuthHandler) SmsLogin(c *gin.Context) {
	var req dto.SmsLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.SmsLogin(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidVerifyCode):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "登录成功", resp)
}

// Register 账号密码注册
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.Register(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPhoneExists):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "注册成功", resp)
}

// Login 账号密码登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.AuthError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "登录成功", resp)
}

// WechatAuthURL 获取微信扫码授权地址
// GET /api/v1/auth/wechat/url
func (h *AuthHandler) WechatAuthURL(c *gin.Context) {
	redirectURI := c.Query("redirect_uri")

	state, err := h.stateStore.GenerateState(c.Request.Context(), redirectURI)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{
		"auth_url": h.authService.WechatAuthURL(state),
		"state":    state,
	})
}

// WechatCallback 微信扫码回调登录
// GET /api/v1/auth/wechat/callback
func (h *AuthHandler) WechatCallback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		response.ParamError(c, "缺少 code 或 state")
		return
	}

	// state 单次有效，防 CSRF
	if _, err := h.stateStore.ValidateState(c.Request.Context(), state); err != nil {
		response.ParamError(c, "state 无效或已过期")
		return
	}

	resp, err := h.authService.WechatLogin(c.Request.Context(), code)
	if err != nil {
		response.ServerError(c, "微信登录失败")
		return
	}

	response.SuccessWithMessage(c, "登录成功", resp)
}
