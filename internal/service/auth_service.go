package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/airchieve/airchieve_go_server/config"
	"github.com/airchieve/airchieve_go_server/internal/model"
	"github.com/airchieve/airchieve_go_server/internal/model/dto"
	"github.com/airchieve/airchieve_go_server/internal/pkg/jwt"
	"github.com/airchieve/airchieve_go_server/internal/pkg/oauth"
	"github.com/airchieve/airchieve_go_server/internal/pkg/verifycode"
	"github.com/airchieve/airchieve_go_server/internal/repository"
)

var (
	ErrPhoneExists        = errors.New("手机号已被注册")
	ErrInvalidCredentials = errors.New("手机号或密码错误")
	ErrInvalidVerifyCode  = errors.New("验证码错误或已过期")
)

type AuthService struct {
	userRepo    *repository.UserRepository
	pointsSvc   *PointsService
	codeStore   *verifycode.Store
	wechatOAuth *oauth.WechatOAuth
	cfg         *config.Config
}

func NewAuthService(
	userRepo *repository.UserRepository,
	pointsSvc *PointsService,
	codeStore *verifycode.Store,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		pointsSvc: pointsSvc,
		codeStore: codeStore,
		wechatOAuth: oauth.NewWechatOAuth(
			cfg.Wechat.AppID,
			cfg.Wechat.AppSecret,
			cfg.Wechat.RedirectURI,
		),
		cfg: cfg,
	}
}

// SendSmsCode 发送登录验证码。
// 短信网关对接在外围，这里只负责生成与存储。
func (s *AuthService) SendSmsCode(ctx context.Context, phone string) error {
	code, err := s.codeStore.Generate(ctx, phone)
	if err != nil {
		return err
	}
	// TODO: 接入短信网关后删除该日志
	log.Printf("SMS code for %s: %s", phone, code)
	return nil
}

// SmsLogin 手机验证码登录，手机号未注册时自动创建账号
func (s *AuthService) SmsLogin(ctx context.Context, req *dto.SmsLoginRequest) (*dto.LoginResponse, error) {
	ok, err := s.codeStore.Verify(ctx, req.Phone, req.Code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidVerifyCode
	}

	user, err := s.userRepo.GetByPhone(req.Phone)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user, err = s.createUser(fmt.Sprintf("用户%s", req.Phone[len(req.Phone)-4:]), &req.Phone, nil, nil)
	}
	if err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

// Register 账号密码注册
func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.LoginResponse, error) {
	exists, err := s.userRepo.ExistsByPhone(req.Phone)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrPhoneExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashedStr := string(hashed)

	user, err := s.createUser(req.Nickname, &req.Phone, &hashedStr, nil)
	if err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

// Login 账号密码登录
func (s *AuthService) Login(req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByPhone(req.Phone)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueToken(user)
}

// WechatAuthURL 微信扫码授权跳转地址
func (s *AuthService) WechatAuthURL(state string) string {
	return s.wechatOAuth.GetAuthURL(state)
}

// WechatLogin 微信扫码回调登录，openid 未绑定时自动创建账号
func (s *AuthService) WechatLogin(ctx context.Context, code string) (*dto.LoginResponse, error) {
	wxUser, err := s.wechatOAuth.ExchangeUser(ctx, code)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByWechatOpenID(wxUser.OpenID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		nickname := wxUser.Nickname
		if nickname == "" {
			nickname = "微信用户"
		}
		user, err = s.createUser(nickname, nil, nil, &wxUser.OpenID)
		if err == nil && wxUser.AvatarURL != "" {
			_ = s.userRepo.UpdateFields(user.ID, map[string]interface{}{"avatar_url": wxUser.AvatarURL})
		}
	}
	if err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

// createUser 创建新用户并发放注册礼包
func (s *AuthService) createUser(nickname string, phone, passwordHash, wechatOpenID *string) (*model.User, error) {
	user := &model.User{
		Nickname:              nickname,
		Role:                  model.RoleUser,
		Phone:                 phone,
		PasswordHash:          passwordHash,
		WechatOpenID:          wechatOpenID,
		MembershipLevel:       model.MembershipFree,
		FreeCreationRemaining: s.cfg.Points.FreeCreationInitial,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	if s.cfg.Points.SignupBonus > 0 {
		if err := s.pointsSvc.GrantBonus(user.ID, s.cfg.Points.SignupBonus, "注册礼包"); err != nil {
			// 礼包发放失败不阻断注册
			log.Printf("Failed to grant signup bonus for user %d: %v", user.ID, err)
		} else {
			user.PointsBalance = s.cfg.Points.SignupBonus
		}
	}
	return user, nil
}

func (s *AuthService) issueToken(user *model.User) (*dto.LoginResponse, error) {
	token, err := jwt.GenerateToken(user.ID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User:  toUserInfo(user),
	}, nil
}

func toUserInfo(user *model.User) *dto.UserInfo {
	info := &dto.UserInfo{
		ID:                    user.ID,
		Nickname:              user.Nickname,
		AvatarURL:             user.AvatarURL,
		Role:                  user.Role,
		PointsBalance:         user.PointsBalance,
		FreeCreationRemaining: user.FreeCreationRemaining,
		MembershipLevel:       user.MembershipLevel,
		CreatedAt:             user.CreatedAt.UTC().Format(time.RFC3339),
	}
	if user.MembershipExpireAt != nil {
		info.MembershipExpireAt = user.MembershipExpireAt.UTC().Format(time.RFC3339)
	}
	return info
}
