package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/airchieve/airchieve_go_server/internal/model"
)

var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = errors.New("订单不存在")
	// ErrAlreadyProcessed 订单已处理（幂等短路，非真正失败）
	ErrAlreadyProcessed = errors.New("订单已处理")
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) CreateRecharge(order *model.RechargeOrder) error {
	return r.db.Create(order).Error
}

func (r *OrderRepository) CreateSubscription(order *model.SubscriptionOrder) error {
	return r.db.Create(order).Error
}

func (r *OrderRepository) GetRechargeByOrderNo(orderNo string) (*model.RechargeOrder, error) {
	var order model.RechargeOrder
	err := r.db.Where("order_no = ?", orderNo).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) GetSubscriptionByOrderNo(orderNo string) (*model.SubscriptionOrder, error) {
	var order model.SubscriptionOrder
	err := r.db.Where("order_no = ?", orderNo).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkRechargePaid 将充值订单 pending → paid。
// WHERE status = 'pending' 的条件更新是幂等闸门：
// 同一回调并发/重复送达时只有一次生效，其余返回 ErrAlreadyProcessed。
func (r *OrderRepository) MarkRechargePaid(tx *gorm.DB, orderNo, transactionID string, paidAt time.Time) error {
	result := tx.Model(&model.RechargeOrder{}).
		Where("order_no = ? AND status = ?", orderNo, model.RechargeStatusPending).
		Updates(map[string]interface{}{
			"status":                model.RechargeStatusPaid,
			"wechat_transaction_id": transactionID,
			"paid_at":               paidAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.classifyNoopRecharge(tx, orderNo)
	}
	return nil
}

// MarkSubscriptionActive 将订阅订单 pending → active，回填起止时间。
func (r *OrderRepository) MarkSubscriptionActive(tx *gorm.DB, orderNo, transactionID string, startAt, expireAt time.Time) error {
	result := tx.Model(&model.SubscriptionOrder{}).
		Where("order_no = ? AND status = ?", orderNo, model.SubscriptionStatusPending).
		Updates(map[string]interface{}{
			"status":                model.SubscriptionStatusActive,
			"wechat_transaction_id": transactionID,
			"start_at":              startAt,
			"expire_at":             expireAt,
			"paid_at":               startAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.classifyNoopSubscription(tx, orderNo)
	}
	return nil
}

// 条件更新没有命中时区分「不存在」和「已处理」
func (r *OrderRepository) classifyNoopRecharge(tx *gorm.DB, orderNo string) error {
	var count int64
	if err := tx.Model(&model.RechargeOrder{}).Where("order_no = ?", orderNo).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrOrderNotFound
	}
	return ErrAlreadyProcessed
}

func (r *OrderRepository) classifyNoopSubscription(tx *gorm.DB, orderNo string) error {
	var count int64
	if err := tx.Model(&model.SubscriptionOrder{}).Where("order_no = ?", orderNo).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrOrderNotFound
	}
	return ErrAlreadyProcessed
}

func (r *OrderRepository) ListRechargeByUser(userID int64, limit, offset int) ([]*model.RechargeOrder, error) {
	var orders []*model.RechargeOrder
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) ListSubscriptionByUser(userID int64, limit, offset int) ([]*model.SubscriptionOrder, error) {
	var orders []*model.SubscriptionOrder
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	return orders, err
}

// CloseStaleRecharges 关闭超时未支付的充值订单（pending → failed）
func (r *OrderRepository) CloseStaleRecharges(before time.Time) (int64, error) {
	result := r.db.Model(&model.RechargeOrder{}).
		Where("status = ? AND created_at < ?", model.RechargeStatusPending, before).
		Update("status", model.RechargeStatusFailed)
	return result.RowsAffected, result.Error
}

// CloseStaleSubscriptions 关闭超时未支付的订阅订单（pending → cancelled）
func (r *OrderRepository) CloseStaleSubscriptions(before time.Time) (int64, error) {
	result := r.db.Model(&model.SubscriptionOrder{}).
		Where("status = ? AND created_at < ?", model.SubscriptionStatusPending, before).
		Update("status", model.SubscriptionStatusCancelled)
	return result.RowsAffected, result.Error
}

// ExpireFinishedSubscriptions 将已到期的订阅订单标记为 expired
func (r *OrderRepository) ExpireFinishedSubscriptions(now time.Time) (int64, error) {
	result := r.db.Model(&model.SubscriptionOrder{}).
		Where("status = ? AND expire_at IS NOT NULL AND expire_at <= ?", model.SubscriptionStatusActive, now).
		Update("status", model.SubscriptionStatusExpired)
	return result.RowsAffected, result.Error
}
