// Package cron 周期性后台任务：关闭超时未支付订单、降级过期会员。
package cron

import (
	"context"
	"log"
	"time"

	"github.com/airchieve/airchieve_go_server/config"
	"github.com/airchieve/airchieve_go_server/internal/repository"
)

type Sweeper struct {
	orderRepo *repository.OrderRepository
	userRepo  *repository.UserRepository
	cfg       *config.Config
	interval  time.Duration
}

func NewSweeper(orderRepo *repository.OrderRepository, userRepo *repository.UserRepository, cfg *config.Config, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		cfg:       cfg,
		interval:  interval,
	}
}

// Start 启动后台循环，ctx 取消后退出
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(time.Now().UTC())
			}
		}
	}()
}

// RunOnce 执行一轮清理。单个步骤失败只记日志，不影响其余步骤。
func (s *Sweeper) RunOnce(now time.Time) {
	timeout := time.Duration(s.cfg.Orders.PendingTimeoutMinutes) * time.Minute
	cutoff := now.Add(-timeout)

	if n, err := s.orderRepo.CloseStaleRecharges(cutoff); err != nil {
		log.Printf("Sweep close stale recharges failed: %v", err)
	} else if n > 0 {
		log.Printf("Closed %d stale recharge orders", n)
	}

	if n, err := s.orderRepo.CloseStaleSubscriptions(cutoff); err != nil {
		log.Printf("Sweep close stale subscriptions failed: %v", err)
	} else if n > 0 {
		log.Printf("Closed %d stale subscription orders", n)
	}

	if n, err := s.orderRepo.ExpireFinishedSubscriptions(now); err != nil {
		log.Printf("Sweep expire subscriptions failed: %v", err)
	} else if n > 0 {
		log.Printf("Expired %d subscription orders", n)
	}

	if n, err := s.userRepo.DowngradeExpiredMemberships(now); err != nil {
		log.Printf("Sweep downgrade memberships failed: %v", err)
	} else if n > 0 {
		log.Printf("Downgraded %d expired memberships", n)
	}
}
