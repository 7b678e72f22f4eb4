package service

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/airchieve/airchieve_go_server/config"
	"github.com/airchieve/airchieve_go_server/internal/model"
	"github.com/airchieve/airchieve_go_server/internal/model/dto"
	"github.com/airchieve/airchieve_go_server/internal/repository"
)

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrInsufficientPoints = errors.New("积分不足")
)

// PointsService 积分账本。
//
// 余额的真相来源是 user_points_log 的流水聚合，User.points_balance
// 是冗余快照。每次变动在单事务内对用户行加锁，同时写流水和快照，
// 同一用户的并发变动串行化，不同用户互不阻塞。
type PointsService struct {
	db         *gorm.DB
	userRepo   *repository.UserRepository
	pointsRepo *repository.PointsRepository
	cfg        *config.Config
}

func NewPointsService(db *gorm.DB, userRepo *repository.UserRepository, pointsRepo *repository.PointsRepository, cfg *config.Config) *PointsService {
	return &PointsService{
		db:         db,
		userRepo:   userRepo,
		pointsRepo: pointsRepo,
		cfg:        cfg,
	}
}

// applyDelta 在已锁定用户行的事务内修改积分：写流水 + 更新快照。
// 扣减导致余额为负时返回 ErrInsufficientPoints（充值/奖励 delta 非负，不会触发）。
func (s *PointsService) applyDelta(tx *gorm.DB, user *model.User, delta int, logType, description string, relatedOrderNo *string) (*model.UserPointsLog, error) {
	newBalance := user.PointsBalance + delta
	if newBalance < 0 {
		return nil, ErrInsufficientPoints
	}

	if err := tx.Model(&model.User{}).Where("id = ?", user.ID).
		Update("points_balance", newBalance).Error; err != nil {
		return nil, err
	}

	var desc *string
	if description != "" {
		desc = &description
	}
	log := &model.UserPointsLog{
		UserID:         user.ID,
		Delta:          delta,
		Type:           logType,
		Description:    desc,
		BalanceAfter:   newBalance,
		RelatedOrderNo: relatedOrderNo,
	}
	if err := s.pointsRepo.CreateLog(tx, log); err != nil {
		return nil, err
	}

	user.PointsBalance = newBalance
	return log, nil
}

// ApplyDelta 通用积分变动入口（管理员调整等），独立事务执行。
func (s *PointsService) ApplyDelta(userID int64, delta int, logType, description string, relatedOrderNo *string) (*model.UserPointsLog, error) {
	var log *model.UserPointsLog
	err := s.db.Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.GetByIDForUpdate(tx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}

		log, err = s.applyDelta(tx, user, delta, logType, description, relatedOrderNo)
		return err
	})
	if err != nil {
		return nil, err
	}
	return log, nil
}

// ConsumeForCreation 绘本创作扣费：优先消耗免费次数（不写流水），
// 不足时扣 creation_cost 积分。
func (s *PointsService) ConsumeForCreation(userID int64) error {
	cost := s.cfg.Points.CreationCost

	return s.db.Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.GetByIDForUpdate(tx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}

		if user.FreeCreationRemaining > 0 {
			return tx.Model(&model.User{}).Where("id = ?", user.ID).
				Update("free_creation_remaining", user.FreeCreationRemaining-1).Error
		}

		if user.PointsBalance < cost {
			return fmt.Errorf("%w：创作需要 %d 积分，当前余额 %d", ErrInsufficientPoints, cost, user.PointsBalance)
		}

		_, err = s.applyDelta(tx, user, -cost, model.PointsLogCreationCost, "绘本创作消耗", nil)
		return err
	})
}

// ConsumeForPageEdit 绘本单页编辑扣费，固定消耗 page_edit_cost 积分，
// 与免费次数无关，每次都写流水。
func (s *PointsService) ConsumeForPageEdit(userID int64) error {
	cost := s.cfg.Points.PageEditCost

	return s.db.Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.GetByIDForUpdate(tx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}

		if user.PointsBalance < cost {
			return fmt.Errorf("%w：单页编辑需要 %d 积分，当前余额 %d", ErrInsufficientPoints, cost, user.PointsBalance)
		}

		_, err = s.applyDelta(tx, user, -cost, model.PointsLogCreationCost, "绘本单页编辑消耗", nil)
		return err
	})
}

// CheckCreationPoints 创作前检查（仅检查，不扣费）
func (s *PointsService) CheckCreationPoints(userID int64) error {
	user, err := s.userRepo.GetByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	if user.FreeCreationRemaining > 0 {
		return nil
	}
	if user.PointsBalance < s.cfg.Points.CreationCost {
		return fmt.Errorf("%w：创作需要 %d 积分，当前余额 %d", ErrInsufficientPoints, s.cfg.Points.CreationCost, user.PointsBalance)
	}
	return nil
}

// CheckPageEditPoints 单页编辑前检查（仅检查，不扣费）
func (s *PointsService) CheckPageEditPoints(userID int64) error {
	user, err := s.userRepo.GetByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	if user.PointsBalance < s.cfg.Points.PageEditCost {
		return fmt.Errorf("%w：单页编辑需要 %d 积分，当前余额 %d", ErrInsufficientPoints, s.cfg.Points.PageEditCost, user.PointsBalance)
	}
	return nil
}

// CreditRecharge 充值到账（由支付服务在回调结算事务内调用）。
// 幂等性由调用方的订单状态闸门保证，同一订单只会走到这里一次。
func (s *PointsService) CreditRecharge(tx *gorm.DB, userID int64, points int, orderNo string) error {
	user, err := s.userRepo.GetByIDForUpdate(tx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	_, err = s.applyDelta(tx, user, points, model.PointsLogRecharge,
		fmt.Sprintf("微信支付充值，订单号 %s", orderNo), &orderNo)
	return err
}

// GrantBonus 平台奖励（注册礼包等），delta 必须非负
func (s *PointsService) GrantBonus(userID int64, points int, description string) error {
	if points <= 0 {
		return nil
	}
	_, err := s.ApplyDelta(userID, points, model.PointsLogBonus, description, nil)
	return err
}

// AdminAdjust 管理员手动增减积分（delta 可正可负，扣减不允许穿仓）
func (s *PointsService) AdminAdjust(userID int64, delta int, description string) error {
	_, err := s.ApplyDelta(userID, delta, model.PointsLogAdminAdjust, description, nil)
	return err
}

// GetBalance 查询积分余额
func (s *PointsService) GetBalance(userID int64) (int, error) {
	user, err := s.userRepo.GetByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}
	return user.PointsBalance, nil
}

// GetOverview 积分余额 + 免费创作次数
func (s *PointsService) GetOverview(userID int64) (*dto.PointsOverview, error) {
	user, err := s.userRepo.GetByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &dto.PointsOverview{
		Balance:               user.PointsBalance,
		FreeCreationRemaining: user.FreeCreationRemaining,
	}, nil
}

// GetHistory 积分流水分页查询（按时间倒序）
func (s *PointsService) GetHistory(userID int64, limit, offset int) ([]*dto.PointsLogInfo, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	logs, err := s.pointsRepo.ListByUser(userID, limit, offset)
	if err != nil {
		return nil, err
	}

	infos := make([]*dto.PointsLogInfo, 0, len(logs))
	for _, log := range logs {
		info := &dto.PointsLogInfo{
			ID:           log.ID,
			Delta:        log.Delta,
			Type:         log.Type,
			BalanceAfter: log.BalanceAfter,
			CreatedAt:    log.CreatedAt.UTC().Format(time.RFC3339),
		}
		if log.Description != nil {
			info.Description = *log.Description
		}
		if log.RelatedOrderNo != nil {
			info.RelatedOrderNo = *log.RelatedOrderNo
		}
		infos = append(infos, info)
	}
	return infos, nil
}
