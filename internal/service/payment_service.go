package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/airchieve/airchieve_go_server/config"
	"github.com/airchieve/airchieve_go_server/internal/model"
	"github.com/airchieve/airchieve_go_server/internal/model/dto"
	"github.com/airchieve/airchieve_go_server/internal/pkg/wechatpay"
	"github.com/airchieve/airchieve_go_server/internal/repository"
)

var (
	ErrInvalidAmount = errors.New("支付金额必须大于 0")
	ErrInvalidLevel  = errors.New("不能订阅 free 套餐")
	ErrInvalidMonths = errors.New("购买月数必须大于 0")
)

const (
	PayChannelH5     = "h5"
	PayChannelNative = "native"

	orderNoMaxAttempts = 3
)

// PayClient 微信支付客户端能力（下单 + 回调解密）
type PayClient interface {
	CreateH5Order(ctx context.Context, orderNo string, amountFen int64, description, notifyURL, clientIP string) (string, error)
	CreateNativeOrder(ctx context.Context, orderNo string, amountFen int64, description, notifyURL string) (string, error)
	DecryptNotifyResource(resource *wechatpay.NotifyResource) (*wechatpay.NotifyResult, error)
}

// PaymentService 支付域服务：创建订单、处理微信回调、订单查询。
//
// 回调结算在单个数据库事务内完成订单状态流转和积分/会员写入，
// status = pending 的条件更新是幂等闸门，重复回调第二次为空操作。
type PaymentService struct {
	db        *gorm.DB
	orderRepo *repository.OrderRepository
	userRepo  *repository.UserRepository
	pointsSvc *PointsService
	payClient PayClient
	cfg       *config.Config
}

func NewPaymentService(
	db *gorm.DB,
	orderRepo *repository.OrderRepository,
	userRepo *repository.UserRepository,
	pointsSvc *PointsService,
	payClient PayClient,
	cfg *config.Config,
) *PaymentService {
	return &PaymentService{
		db:        db,
		orderRepo: orderRepo,
		userRepo:  userRepo,
		pointsSvc: pointsSvc,
		payClient: payClient,
		cfg:       cfg,
	}
}

// ---------------------------------------------------------------------------
// 工具
// ---------------------------------------------------------------------------

// genOrderNo 生成订单号：{prefix}{YYYYMMDDHHmmss}{6位随机}，总长 ≤ 32
func genOrderNo(prefix string) (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	rand6 := strings.ToUpper(hex.EncodeToString(buf))
	return prefix + time.Now().UTC().Format("20060102150405") + rand6, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// calcPoints 分 → 积分：amount_fen / 100 * points_per_yuan（向下取整）
func (s *PaymentService) calcPoints(amountFen int64) int {
	return int(amountFen/100) * s.cfg.Points.PointsPerYuan
}

// ---------------------------------------------------------------------------
// 下单
// ---------------------------------------------------------------------------

// CreateRechargeOrder 创建积分充值订单并向微信下单，
// 返回前端拉起支付所需的 h5_url / code_url。
func (s *PaymentService) CreateRechargeOrder(ctx context.Context, userID int64, req *dto.CreateRechargeRequest) (*dto.PayOrderResponse, error) {
	if req.AmountFen <= 0 {
		return nil, ErrInvalidAmount
	}

	order, err := s.insertRechargeOrder(userID, req.AmountFen)
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("积分充值 %d 积分", order.PointsAmount)
	notifyURL := s.cfg.WechatPay.NotifyBaseURL + "/recharge"

	return s.placeProviderOrder(ctx, order.OrderNo, req.AmountFen, description, notifyURL, req.PayChannel, req.ClientIP)
}

// CreateSubscriptionOrder 创建会员订阅订单并向微信下单
func (s *PaymentService) CreateSubscriptionOrder(ctx context.Context, userID int64, req *dto.CreateSubscriptionRequest) (*dto.PayOrderResponse, error) {
	if !model.IsPaidMembership(req.Level) {
		return nil, ErrInvalidLevel
	}
	if req.Months <= 0 {
		return nil, ErrInvalidMonths
	}
	if req.AmountFen <= 0 {
		return nil, ErrInvalidAmount
	}

	order, err := s.insertSubscriptionOrder(userID, req.Level, req.Months, req.AmountFen)
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("%s 会员 %d 个月", capitalize(req.Level), req.Months)
	notifyURL := s.cfg.WechatPay.NotifyBaseURL + "/subscription"

	return s.placeProviderOrder(ctx, order.OrderNo, req.AmountFen, description, notifyURL, req.PayChannel, req.ClientIP)
}

// insertRechargeOrder 落库，订单号撞唯一索引时重新生成再试
func (s *PaymentService) insertRechargeOrder(userID int64, amountFen int64) (*model.RechargeOrder, error) {
	for attempt := 0; attempt < orderNoMaxAttempts; attempt++ {
		orderNo, err := genOrderNo("RC")
		if err != nil {
			return nil, err
		}

		order := &model.RechargeOrder{
			UserID:       userID,
			OrderNo:      orderNo,
			AmountFen:    amountFen,
			PointsAmount: s.calcPoints(amountFen),
			Status:       model.RechargeStatusPending,
		}
		err = s.orderRepo.CreateRecharge(order)
		if err == nil {
			return order, nil
		}
		if !isDuplicateKey(err) {
			return nil, err
		}
	}
	return nil, errors.New("订单号生成冲突，请重试")
}

func (s *PaymentService) insertSubscriptionOrder(userID int64, level string, months int, amountFen int64) (*model.SubscriptionOrder, error) {
	for attempt := 0; attempt < orderNoMaxAttempts; attempt++ {
		orderNo, err := genOrderNo("SUB")
		if err != nil {
			return nil, err
		}

		order := &model.SubscriptionOrder{
			UserID:    userID,
			OrderNo:   orderNo,
			Level:     level,
			Months:    months,
			AmountFen: amountFen,
			Status:    model.SubscriptionStatusPending,
		}
		err = s.orderRepo.CreateSubscription(order)
		if err == nil {
			return order, nil
		}
		if !isDuplicateKey(err) {
			return nil, err
		}
	}
	return nil, errors.New("订单号生成冲突，请重试")
}

func (s *PaymentService) placeProviderOrder(ctx context.Context, orderNo string, amountFen int64, description, notifyURL, channel, clientIP string) (*dto.PayOrderResponse, error) {
	if channel == PayChannelH5 {
		h5URL, err := s.payClient.CreateH5Order(ctx, orderNo, amountFen, description, notifyURL, clientIP)
		if err != nil {
			return nil, err
		}
		return &dto.PayOrderResponse{OrderNo: orderNo, PayType: PayChannelH5, H5URL: h5URL}, nil
	}

	codeURL, err := s.payClient.CreateNativeOrder(ctx, orderNo, amountFen, description, notifyURL)
	if err != nil {
		return nil, err
	}
	return &dto.PayOrderResponse{OrderNo: orderNo, PayType: PayChannelNative, CodeURL: codeURL}, nil
}

// ---------------------------------------------------------------------------
// 微信回调结算
// ---------------------------------------------------------------------------

// HandleRechargeNotify 处理充值回调原始请求体。
// 解密失败或结算失败返回错误，由接口层应答 FAIL 触发微信重试；
// 重复回调（订单已处理）视为成功。
func (s *PaymentService) HandleRechargeNotify(rawBody []byte) error {
	result, err := s.decryptNotify(rawBody)
	if err != nil {
		return err
	}
	if result.TradeState != "SUCCESS" {
		log.Printf("Recharge notify ignored: order=%s trade_state=%s", result.OutTradeNo, result.TradeState)
		return nil
	}

	err = s.SettleRecharge(result.OutTradeNo, result.TransactionID)
	if errors.Is(err, repository.ErrAlreadyProcessed) {
		log.Printf("Recharge notify duplicate: order=%s", result.OutTradeNo)
		return nil
	}
	if err != nil {
		return err
	}

	log.Printf("Recharge settled: order=%s tx=%s", result.OutTradeNo, result.TransactionID)
	return nil
}

// HandleSubscriptionNotify 处理订阅回调原始请求体
func (s *PaymentService) HandleSubscriptionNotify(rawBody []byte) error {
	result, err := s.decryptNotify(rawBody)
	if err != nil {
		return err
	}
	if result.TradeState != "SUCCESS" {
		log.Printf("Subscription notify ignored: order=%s trade_state=%s", result.OutTradeNo, result.TradeState)
		return nil
	}

	err = s.SettleSubscription(result.OutTradeNo, result.TransactionID)
	if errors.Is(err, repository.ErrAlreadyProcessed) {
		log.Printf("Subscription notify duplicate: order=%s", result.OutTradeNo)
		return nil
	}
	if err != nil {
		return err
	}

	log.Printf("Subscription settled: order=%s tx=%s", result.OutTradeNo, result.TransactionID)
	return nil
}

func (s *PaymentService) decryptNotify(rawBody []byte) (*wechatpay.NotifyResult, error) {
	var body wechatpay.NotifyBody
	if err := json.Unmarshal(rawBody, &body); err != nil {
		return nil, fmt.Errorf("回调请求体不是合法 JSON: %w", err)
	}
	return s.payClient.DecryptNotifyResource(&body.Resource)
}

// SettleRecharge 充值结算：订单 pending → paid 与积分到账在同一事务提交。
// 订单非 pending 时返回 repository.ErrAlreadyProcessed。
func (s *PaymentService) SettleRecharge(orderNo, transactionID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var order model.RechargeOrder
		err := tx.Where("order_no = ?", orderNo).First(&order).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.ErrOrderNotFound
		}
		if err != nil {
			return err
		}

		if err := s.orderRepo.MarkRechargePaid(tx, orderNo, transactionID, time.Now().UTC()); err != nil {
			return err
		}

		return s.pointsSvc.CreditRecharge(tx, order.UserID, order.PointsAmount, orderNo)
	})
}

// SettleSubscription 订阅结算：订单 pending → active、会员缓存字段
// （等级 / 到期时间）在同一事务提交。到期时间只向后延，不会缩短。
func (s *PaymentService) SettleSubscription(orderNo, transactionID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var order model.SubscriptionOrder
		err := tx.Where("order_no = ?", orderNo).First(&order).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.ErrOrderNotFound
		}
		if err != nil {
			return err
		}

		user, err := s.userRepo.GetByIDForUpdate(tx, order.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		newExpire := NextMembership(user.MembershipLevel, user.MembershipExpireAt, order.Level, order.Months, now)

		if err := s.orderRepo.MarkSubscriptionActive(tx, orderNo, transactionID, now, newExpire); err != nil {
			return err
		}

		return s.userRepo.UpdateMembershipFields(tx, user.ID, order.Level, &newExpire)
	})
}

// ---------------------------------------------------------------------------
// 查询
// ---------------------------------------------------------------------------

// GetRechargeStatus 查询充值订单状态（校验归属）
func (s *PaymentService) GetRechargeStatus(userID int64, orderNo string) (*dto.OrderStatusResponse, error) {
	order, err := s.orderRepo.GetRechargeByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return &dto.OrderStatusResponse{OrderNo: order.OrderNo, Status: order.Status}, nil
}

// GetSubscriptionStatus 查询订阅订单状态（校验归属）
func (s *PaymentService) GetSubscriptionStatus(userID int64, orderNo string) (*dto.OrderStatusResponse, error) {
	order, err := s.orderRepo.GetSubscriptionByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return &dto.OrderStatusResponse{OrderNo: order.OrderNo, Status: order.Status}, nil
}

// ListRechargeOrders 用户充值订单历史（按时间倒序）
func (s *PaymentService) ListRechargeOrders(userID int64, limit, offset int) ([]*dto.RechargeOrderInfo, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	orders, err := s.orderRepo.ListRechargeByUser(userID, limit, offset)
	if err != nil {
		return nil, err
	}

	infos := make([]*dto.RechargeOrderInfo, 0, len(orders))
	for _, order := range orders {
		info := &dto.RechargeOrderInfo{
			OrderNo:      order.OrderNo,
			AmountFen:    order.AmountFen,
			PointsAmount: order.PointsAmount,
			Status:       order.Status,
			CreatedAt:    order.CreatedAt.UTC().Format(time.RFC3339),
		}
		if order.PaidAt != nil {
			info.PaidAt = order.PaidAt.UTC().Format(time.RFC3339)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ListSubscriptionOrders 用户订阅订单历史（按时间倒序）
func (s *PaymentService) ListSubscriptionOrders(userID int64, limit, offset int) ([]*dto.SubscriptionOrderInfo, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	orders, err := s.orderRepo.ListSubscriptionByUser(userID, limit, offset)
	if err != nil {
		return nil, err
	}

	infos := make([]*dto.SubscriptionOrderInfo, 0, len(orders))
	for _, order := range orders {
		info := &dto.SubscriptionOrderInfo{
			OrderNo:   order.OrderNo,
			Level:     order.Level,
			Months:    order.Months,
			AmountFen: order.AmountFen,
			Status:    order.Status,
			CreatedAt: order.CreatedAt.UTC().Format(time.RFC3339),
		}
		if order.StartAt != nil {
			info.StartAt = order.StartAt.UTC().Format(time.RFC3339)
		}
		if order.ExpireAt != nil {
			info.ExpireAt = order.ExpireAt.UTC().Format(time.RFC3339)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// AdminSetMembership 管理员直接设置会员等级和到期时间
func (s *PaymentService) AdminSetMembership(userID int64, level string, expireAt *time.Time) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.GetByIDForUpdate(tx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		return s.userRepo.UpdateMembershipFields(tx, user.ID, level, expireAt)
	})
}
