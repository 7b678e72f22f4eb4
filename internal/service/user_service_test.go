package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/airchieve/airchieve_go_server/internal/model"
	"github.com/airchieve/airchieve_go_server/internal/model/dto"
	"github.com/airchieve/airchieve_go_server/internal/pkg/verifycode"
	"github.com/airchieve/airchieve_go_server/internal/repository"
	"github.com/airchieve/airchieve_go_server/internal/testutil"
)

func newUserService(t *testing.T, db *gorm.DB) (*UserService, *verifycode.Store) {
	t.Helper()

	codeStore := verifycode.NewStore(testutil.SetupTestRedis(t), 5*time.Minute, 6)
	return NewUserService(repository.NewUserRepository(db), codeStore, testPointsConfig()), codeStore
}

func TestGetProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc, _ := newUserService(t, db)

	expireAt := time.Now().UTC().Add(15 * 24 * time.Hour)
	user := testutil.TestUser(t, db,
		testutil.WithPoints(42),
		testutil.WithMembership(model.MembershipPro, expireAt),
	)

	info, err := svc.GetProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, info.ID)
	assert.Equal(t, 42, info.PointsBalance)
	assert.Equal(t, model.MembershipPro, info.MembershipLevel)
	assert.NotEmpty(t, info.MembershipExpireAt)

	_, err = svc.GetProfile(99999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateNickname(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc, _ := newUserService(t, db)

	user := testutil.TestUser(t, db)

	require.NoError(t, svc.UpdateNickname(user.ID, "新昵称"))

	info, err := svc.GetProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "新昵称", info.Nickname)
}

func TestBindPhone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc, codeStore := newUserService(t, db)
	ctx := context.Background()

	user := testutil.TestUser(t, db)

	code, err := codeStore.Generate(ctx, "13700001111")
	require.NoError(t, err)

	require.NoError(t, svc.BindPhone(ctx, user.ID, &dto.BindPhoneRequest{Phone: "13700001111", Code: code}))

	got, err := repository.NewUserRepository(db).GetByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "13700001111", *got.Phone)
}

func TestBindPhone_Taken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc, codeStore := newUserService(t, db)
	ctx := context.Background()

	testutil.TestUser(t, db, testutil.WithPhone("13700002222"))
	user := testutil.TestUser(t, db)

	code, err := codeStore.Generate(ctx, "13700002222")
	require.NoError(t, err)

	err = svc.BindPhone(ctx, user.ID, &dto.BindPhoneRequest{Phone: "13700002222", Code: code})
	assert.ErrorIs(t, err, ErrPhoneExists)
}

func TestBindPhone_WrongCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc, _ := newUserService(t, db)

	user := testutil.TestUser(t, db)

	err := svc.BindPhone(context.Background(), user.ID, &dto.BindPhoneRequest{Phone: "13700003333", Code: "000000"})
	assert.ErrorIs(t, err, ErrInvalidVerifyCode)
}

func TestIsAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc, _ := newUserService(t, db)

	admin := testutil.TestUser(t, db, testutil.WithRole(model.RoleAdmin))
	normal := testutil.TestUser(t, db)

	ok, err := svc.IsAdmin(admin.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsAdmin(normal.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
