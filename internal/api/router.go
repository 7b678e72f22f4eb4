package api

import (
	"github.com/gin-gonic/gin"

	"github.com/airchieve/airchieve_go_server/config"
	"github.com/airchieve/airchieve_go_server/internal/api/handler"
	"github.com/airchieve/airchieve_go_server/internal/api/middleware"
	"github.com/airchieve/airchieve_go_server/internal/service"
)

type Router struct {
	authHandler    *handler.AuthHandler
	userHandler    *handler.UserHandler
	paymentHandler *handler.PaymentHandler
	adminHandler   *handler.AdminHandler
	userService    *service.UserService
	cfg            *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	paymentHandler *handler.PaymentHandler,
	adminHandler *handler.AdminHandler,
	userService *service.UserService,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:    authHandler,
		userHandler:    userHandler,
		paymentHandler: paymentHandler,
		adminHandler:   adminHandler,
		userService:    userService,
		cfg:            cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api/v1")
	{
		// 公开接口 - 认证
		auth := api.Group("/auth")
		{
			auth.POST("/send-code", r.authHandler.SendCode)
			auth.POST("/sms-login", r.authHandler.SmsLogin)
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.GET("/wechat/url", r.authHandler.WechatAuthURL)
			auth.GET("/wechat/callback", r.authHandler.WechatCallback)
		}

		// 微信支付回调（微信服务器调用，签名在支付域内校验）
		notify := api.Group("/payment/notify")
		{
			notify.POST("/recharge", r.paymentHandler.RechargeNotify)
			notify.POST("/subscription", r.paymentHandler.SubscriptionNotify)
		}

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			// 用户
			user := authenticated.Group("/user")
			{
				user.GET("/profile", r.userHandler.GetProfile)
				user.PUT("/nickname", r.userHandler.UpdateNickname)
				user.POST("/bind-phone", r.userHandler.BindPhone)
				user.GET("/points", r.userHandler.GetPointsOverview)
				user.GET("/points/history", r.userHandler.GetPointsHistory)
				user.GET("/points/check-creation", r.userHandler.CheckCreationQuota)
			}

			// 支付
			payment := authenticated.Group("/payment")
			{
				payment.POST("/recharge", r.paymentHandler.CreateRecharge)
				payment.POST("/subscription", r.paymentHandler.CreateSubscription)
				payment.GET("/recharge/:orderNo", r.paymentHandler.GetRechargeStatus)
				payment.GET("/subscription/:orderNo", r.paymentHandler.GetSubscriptionStatus)
				payment.GET("/recharges", r.paymentHandler.ListRecharges)
				payment.GET("/subscriptions", r.paymentHandler.ListSubscriptions)
			}

			// 管理端
			admin := authenticated.Group("/admin")
			admin.Use(middleware.Admin(r.userService))
			{
				admin.POST("/users/:id/points", r.adminHandler.AdjustPoints)
				admin.POST("/users/:id/membership", r.adminHandler.SetMembership)
			}
		}
	}

	return engine
}
