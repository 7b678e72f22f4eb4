package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/airchieve/airchieve_go_server/config"
	"github.com/airchieve/airchieve_go_server/internal/model"
	"github.com/airchieve/airchieve_go_server/internal/model/dto"
	"github.com/airchieve/airchieve_go_server/internal/pkg/verifycode"
	"github.com/airchieve/airchieve_go_server/internal/repository"
)

type UserService struct {
	userRepo  *repository.UserRepository
	codeStore *verifycode.Store
	cfg       *config.Config
}

func NewUserService(userRepo *repository.UserRepository, codeStore *verifycode.Store, cfg *config.Config) *UserService {
	return &UserService{
		userRepo:  userRepo,
		codeStore: codeStore,
		cfg:       cfg,
	}
}

// GetProfile 获取当前用户信息
func (s *UserService) GetProfile(userID int64) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return toUserInfo(user), nil
}

// UpdateNickname 修改昵称
func (s *UserService) UpdateNickname(userID int64, nickname string) error {
	return s.userRepo.UpdateFields(userID, map[string]interface{}{"nickname": nickname})
}

// BindPhone 绑定手机号（需先发送验证码）
func (s *UserService) BindPhone(ctx context.Context, userID int64, req *dto.BindPhoneRequest) error {
	ok, err := s.codeStore.Verify(ctx, req.Phone, req.Code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidVerifyCode
	}

	exists, err := s.userRepo.ExistsByPhone(req.Phone)
	if err != nil {
		return err
	}
	if exists {
		return ErrPhoneExists
	}

	return s.userRepo.UpdateFields(userID, map[string]interface{}{"phone": req.Phone})
}

// IsAdmin 当前用户是否为管理员
func (s *UserService) IsAdmin(userID int64) (bool, error) {
	user, err := s.userRepo.GetByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, ErrUserNotFound
	}
	if err != nil {
		return false, err
	}
	return user.Role == model.RoleAdmin, nil
}
