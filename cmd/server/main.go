package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/airchieve/airchieve_go_server/config"
	"github.com/airchieve/airchieve_go_server/internal/api"
	"github.com/airchieve/airchieve_go_server/internal/api/handler"
	"github.com/airchieve/airchieve_go_server/internal/database"
	"github.com/airchieve/airchieve_go_server/internal/pkg/cron"
	"github.com/airchieve/airchieve_go_server/internal/pkg/oauth"
	"github.com/airchieve/airchieve_go_server/internal/pkg/verifycode"
	"github.com/airchieve/airchieve_go_server/internal/pkg/wechatpay"
	"github.com/airchieve/airchieve_go_server/internal/repository"
	"github.com/airchieve/airchieve_go_server/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	// 初始化微信支付客户端
	payClient, err := wechatpay.NewClient(&cfg.WechatPay)
	if err != nil {
		log.Fatalf("Failed to init wechat pay client: %v", err)
	}

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	pointsRepo := repository.NewPointsRepository(db)

	// 初始化 Service
	codeStore := verifycode.NewStore(rdb, time.Duration(cfg.SMS.CodeTTLSeconds)*time.Second, cfg.SMS.CodeLength)
	stateStore := oauth.NewStateStore(rdb)
	pointsService := service.NewPointsService(db, userRepo, pointsRepo, cfg)
	authService := service.NewAuthService(userRepo, pointsService, codeStore, cfg)
	userService := service.NewUserService(userRepo, codeStore, cfg)
	paymentService := service.NewPaymentService(db, orderRepo, userRepo, pointsService, payClient, cfg)

	// 后台清理：关闭超时订单、降级过期会员
	sweeper := cron.NewSweeper(orderRepo, userRepo, cfg, time.Minute)
	sweeper.Start(context.Background())
	log.Println("Order sweeper started")

	// 初始化 Handler
	authHandler := handler.NewAuthHandler(authService, stateStore)
	userHandler := handler.NewUserHandler(userService, pointsService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	adminHandler := handler.NewAdminHandler(pointsService, paymentService)

	// 初始化 Router
	router := api.NewRouter(
		authHandler,
		userHandler,
		paymentHandler,
		adminHandler,
		userService,
		cfg,
	)
	engine := router.Setup()

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
