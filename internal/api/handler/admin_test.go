package handler

import (
	"fmt"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/airchieve/airchieve_go_server/internal/model"
	"github.com/airchieve/airchieve_go_server/internal/model/dto"
	"github.com/airchieve/airchieve_go_server/internal/pkg/response"
	"github.com/airchieve/airchieve_go_server/internal/repository"
	"github.com/airchieve/airchieve_go_server/internal/service"
	"github.com/airchieve/airchieve_go_server/internal/testutil"
)

func setupAdminHandler(t *testing.T) (*AdminHandler, *gorm.DB, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testConfig()

	userRepo := repository.NewUserRepository(db)
	pointsSvc := service.NewPointsService(db, userRepo, repository.NewPointsRepository(db), cfg)
	paymentSvc := service.NewPaymentService(db, repository.NewOrderRepository(db), userRepo, pointsSvc, &stubPayClient{}, cfg)

	handler := NewAdminHandler(pointsSvc, paymentSvc)
	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}
	return handler, db, cleanup
}

func TestAdminHandler_AdjustPoints(t *testing.T) {
	handler, db, cleanup := setupAdminHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, db, testutil.WithPoints(10))

	router := gin.New()
	router.POST("/users/:id/points", handler.AdjustPoints)

	w := performRequest(router, "POST", fmt.Sprintf("/users/%d/points", user.ID), dto.AdminAdjustPointsRequest{
		Delta:       50,
		Description: "运营补偿",
	})
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	got, err := repository.NewUserRepository(db).GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, got.PointsBalance)
}

func TestAdminHandler_AdjustPoints_Insufficient(t *testing.T) {
	handler, db, cleanup := setupAdminHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, db, testutil.WithPoints(10))

	router := gin.New()
	router.POST("/users/:id/points", handler.AdjustPoints)

	w := performRequest(router, "POST", fmt.Sprintf("/users/%d/points", user.ID), dto.AdminAdjustPointsRequest{
		Delta:       -100,
		Description: "误发回收",
	})
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodePointsInsufficient, resp.Code)
}

func TestAdminHandler_AdjustPoints_UserNotFound(t *testing.T) {
	handler, _, cleanup := setupAdminHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/users/:id/points", handler.AdjustPoints)

	w := performRequest(router, "POST", "/users/99999/points", dto.AdminAdjustPointsRequest{
		Delta:       10,
		Description: "补偿",
	})
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeResourceNotFound, resp.Code)

	w = performRequest(router, "POST", "/users/not-a-number/points", dto.AdminAdjustPointsRequest{
		Delta:       10,
		Description: "补偿",
	})
	resp = parseResponse(t, w)
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestAdminHandler_SetMembership(t *testing.T) {
	handler, db, cleanup := setupAdminHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, db)

	router := gin.New()
	router.POST("/users/:id/membership", handler.SetMembership)

	expireAt := time.Now().UTC().Add(90 * 24 * time.Hour).Format(time.RFC3339)
	w := performRequest(router, "POST", fmt.Sprintf("/users/%d/membership", user.ID), dto.AdminSetMembershipRequest{
		Level:    model.MembershipMax,
		ExpireAt: expireAt,
	})
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	got, err := repository.NewUserRepository(db).GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MembershipMax, got.MembershipLevel)

	// 付费等级缺到期时间
	w = performRequest(router, "POST", fmt.Sprintf("/users/%d/membership", user.ID), dto.AdminSetMembershipRequest{
		Level: model.MembershipPro,
	})
	resp = parseResponse(t, w)
	assert.Equal(t, response.CodeParamError, resp.Code)

	// 重置回 free 不需要到期时间
	w = performRequest(router, "POST", fmt.Sprintf("/users/%d/membership", user.ID), dto.AdminSetMembershipRequest{
		Level: model.MembershipFree,
	})
	resp = parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)
}
