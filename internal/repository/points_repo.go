package repository

import (
	"gorm.io/gorm"

	"github.com/airchieve/airchieve_go_server/internal/model"
)

type PointsRepository struct {
	db *gorm.DB
}

func NewPointsRepository(db *gorm.DB) *PointsRepository {
	return &PointsRepository{db: db}
}

// CreateLog 写入一条流水（事务内调用，流水只增不改）
func (r *PointsRepository) CreateLog(tx *gorm.DB, log *model.UserPointsLog) error {
	return tx.Create(log).Error
}

func (r *PointsRepository) ListByUser(userID int64, limit, offset int) ([]*model.UserPointsLog, error) {
	var logs []*model.UserPointsLog
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&logs).Error
	return logs, err
}

// SumDeltaByUser 按流水聚合用户余额（对账用，正常读走 User.points_balance）
func (r *PointsRepository) SumDeltaByUser(userID int64) (int, error) {
	var sum *int
	err := r.db.Model(&model.UserPointsLog{}).
		Where("user_id = ?", userID).
		Select("SUM(delta)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

// CountByOrderNo 按关联订单号统计流水条数（幂等校验用）
func (r *PointsRepository) CountByOrderNo(orderNo string) (int64, error) {
	var count int64
	err := r.db.Model(&model.UserPointsLog{}).
		Where("related_order_no = ?", orderNo).
		Count(&count).Error
	return count, err
}
