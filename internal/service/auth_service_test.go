package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/airchieve/airchieve_go_server/config"
	"github.com/airchieve/airchieve_go_server/internal/model"
	"github.com/airchieve/airchieve_go_server/internal/model/dto"
	"github.com/airchieve/airchieve_go_server/internal/pkg/jwt"
	"github.com/airchieve/airchieve_go_server/internal/pkg/verifycode"
	"github.com/airchieve/airchieve_go_server/internal/repository"
	"github.com/airchieve/airchieve_go_server/internal/testutil"
)

func newAuthService(t *testing.T, db *gorm.DB) (*AuthService, *verifycode.Store) {
	t.Helper()

	rdb := testutil.SetupTestRedis(t)

	cfg := testPointsConfig()
	cfg.JWT = config.JWTConfig{Secret: "test-secret", ExpireHours: 24}

	userRepo := repository.NewUserRepository(db)
	pointsSvc := NewPointsService(db, userRepo, repository.NewPointsRepository(db), cfg)
	codeStore := verifycode.NewStore(rdb, 5*time.Minute, 6)

	return NewAuthService(userRepo, pointsSvc, codeStore, cfg), codeStore
}

func TestSmsLogin_AutoRegister(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc, codeStore := newAuthService(t, db)
	ctx := context.Background()

	code, err := codeStore.Generate(ctx, "13900001111")
	require.NoError(t, err)

	resp, err := svc.SmsLogin(ctx, &dto.SmsLoginRequest{Phone: "13900001111", Code: code})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)

	// 自动注册：默认昵称 + 注册礼包
	assert.Equal(t, "用户1111", resp.User.Nickname)
	assert.Equal(t, 1, resp.User.PointsBalance)
	assert.Equal(t, 6, resp.User.FreeCreationRemaining)
	assert.Equal(t, model.MembershipFree, resp.User.MembershipLevel)

	// Token 可解析出用户 ID
	claims, err := jwt.ParseToken(resp.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
}

func TestSmsLogin_ExistingUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc, codeStore := newAuthService(t, db)
	ctx := context.Background()

	user := testutil.TestUser(t, db, testutil.WithPhone("13900002222"), testutil.WithPoints(77))

	code, err := codeStore.Generate(ctx, "13900002222")
	require.NoError(t, err)

	resp, err := svc.SmsLogin(ctx, &dto.SmsLoginRequest{Phone: "13900002222", Code: code})
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.Equal(t, 77, resp.User.PointsBalance)
}

func TestSmsLogin_WrongCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc, codeStore := newAuthService(t, db)
	ctx := context.Background()

	_, err := codeStore.Generate(ctx, "13900003333")
	require.NoError(t, err)

	_, err = svc.SmsLogin(ctx, &dto.SmsLoginRequest{Phone: "13900003333", Code: "000000"})
	assert.ErrorIs(t, err, ErrInvalidVerifyCode)
}

func TestSmsLogin_CodeSingleUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc, codeStore := newAuthService(t, db)
	ctx := context.Background()

	code, err := codeStore.Generate(ctx, "13900004444")
	require.NoError(t, err)

	_, err = svc.SmsLogin(ctx, &dto.SmsLoginRequest{Phone: "13900004444", Code: code})
	require.NoError(t, err)

	// 验证码单次有效
	_, err = svc.SmsLogin(ctx, &dto.SmsLoginRequest{Phone: "13900004444", Code: code})
	assert.ErrorIs(t, err, ErrInvalidVerifyCode)
}

func TestRegisterAndLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc, _ := newAuthService(t, db)

	resp, err := svc.Register(&dto.RegisterRequest{
		Nickname: "新用户",
		Phone:    "13900005555",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "新用户", resp.User.Nickname)

	// 密码不落明文
	user, err := repository.NewUserRepository(db).GetByPhone("13900005555")
	require.NoError(t, err)
	require.NotNil(t, user.PasswordHash)
	assert.NotEqual(t, "s3cret-pass", *user.PasswordHash)

	// 注册后可登录
	resp, err = svc.Login(&dto.LoginRequest{Phone: "13900005555", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.User.ID)

	_, err = svc.Login(&dto.LoginRequest{Phone: "13900005555", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_DuplicatePhone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc, _ := newAuthService(t, db)

	testutil.TestUser(t, db, testutil.WithPhone("13900006666"))

	_, err := svc.Register(&dto.RegisterRequest{
		Nickname: "新用户",
		Phone:    "13900006666",
		Password: "s3cret-pass",
	})
	assert.ErrorIs(t, err, ErrPhoneExists)
}

func TestLogin_UnknownPhoneOrNoPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc, _ := newAuthService(t, db)

	_, err := svc.Login(&dto.LoginRequest{Phone: "13900007777", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// 短信注册用户没有密码，密码登录同样拒绝
	testutil.TestUser(t, db, testutil.WithPhone("13900008888"))
	_, err = svc.Login(&dto.LoginRequest{Phone: "13900008888", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestWechatAuthURL(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc, _ := newAuthService(t, db)

	url := svc.WechatAuthURL("state-abc")
	assert.Contains(t, url, "state=state-abc")
	assert.Contains(t, url, "#wechat_redirect")
}
