package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	var resp Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func serve(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	router := gin.New()
	router.GET("/test", handler)

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSuccess(t *testing.T) {
	w := serve(func(c *gin.Context) {
		Success(c, gin.H{"order_no": "RC123"})
	})

	assert.Equal(t, http.StatusOK, w.Code)

	resp := parseResponse(t, w)
	assert.Equal(t, CodeSuccess, resp.Code)
	assert.Equal(t, "success", resp.Message)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "RC123", data["order_no"])
}

func TestSuccessWithMessage(t *testing.T) {
	w := serve(func(c *gin.Context) {
		SuccessWithMessage(c, "下单成功", gin.H{"result": true})
	})

	resp := parseResponse(t, w)
	assert.Equal(t, CodeSuccess, resp.Code)
	assert.Equal(t, "下单成功", resp.Message)
}

func TestSuccessPage(t *testing.T) {
	w := serve(func(c *gin.Context) {
		SuccessPage(c, 42, 1, 20, []string{"a", "b"})
	})

	resp := parseResponse(t, w)
	assert.Equal(t, CodeSuccess, resp.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(42), data["total"])
	assert.Equal(t, float64(1), data["page"])
	assert.Equal(t, float64(20), data["page_size"])

	items, ok := data["items"].([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 2)
}

func TestError_DefaultMessage(t *testing.T) {
	w := serve(func(c *gin.Context) {
		Error(c, CodeParamError, "")
	})

	// 错误也返回 HTTP 200，用 code 区分
	assert.Equal(t, http.StatusOK, w.Code)

	resp := parseResponse(t, w)
	assert.Equal(t, CodeParamError, resp.Code)
	assert.Equal(t, "参数错误", resp.Message)
	assert.Nil(t, resp.Data)
}

func TestError_CustomMessage(t *testing.T) {
	w := serve(func(c *gin.Context) {
		Error(c, CodeParamError, "金额必须大于 0")
	})

	resp := parseResponse(t, w)
	assert.Equal(t, CodeParamError, resp.Code)
	assert.Equal(t, "金额必须大于 0", resp.Message)
}

func TestErrorHelpers(t *testing.T) {
	cases := []struct {
		name     string
		handler  gin.HandlerFunc
		wantCode int
		wantMsg  string
	}{
		{"param", func(c *gin.Context) { ParamError(c, "") }, CodeParamError, "参数错误"},
		{"auth", func(c *gin.Context) { AuthError(c, "") }, CodeAuthFailed, "认证失败"},
		{"permission", func(c *gin.Context) { PermissionError(c, "") }, CodePermissionDenied, "权限不足"},
		{"not found", func(c *gin.Context) { NotFoundError(c, "") }, CodeResourceNotFound, "资源不存在"},
		{"points", func(c *gin.Context) { PointsError(c, "") }, CodePointsInsufficient, "积分不足"},
		{"duplicate", func(c *gin.Context) { DuplicateError(c, "") }, CodeDuplicateAction, "重复操作"},
		{"provider", func(c *gin.Context) { ProviderError(c, "") }, CodeProviderError, "支付渠道异常"},
		{"server", func(c *gin.Context) { ServerError(c, "") }, CodeServerError, "服务器内部错误"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(tc.handler)
			resp := parseResponse(t, w)
			assert.Equal(t, tc.wantCode, resp.Code)
			assert.Equal(t, tc.wantMsg, resp.Message)
		})
	}
}
