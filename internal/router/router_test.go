package router

import (
	"context"
	"net/http"
	"strings"
	"net/http/httptest"
	"testing"

	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/dto/respond"
	"kindergarten_server/internal/handler"
	"kindergarten_server/internal/infrastructure/middleware"
	"kindergarten_server/internal/model"
	"kindergarten_server/internal/service"
	"kindergarten_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnalytics struct {
	service.AnalyticsService
	calls int
}

func (s *stubAnalytics) Overview(_ context.Context, req request.OverviewRequest) (*respond.OverviewRespond, error) {
	s.calls++
	return &respond.OverviewRespond{KindergartenID: req.KindergartenID}, nil
}

type stubOrder struct {
	service.OrderService
	callbacks []request.PaymentCallbackRequest
}

func (s *stubOrder) PaymentCallback(_ context.Context, req request.PaymentCallbackRequest) (*model.Order, error) {
	s.callbacks = append(s.callbacks, req)
	return &model.Order{OrderNo: req.OrderNo, Status: model.OrderPaid}, nil
}

const testPaymentSecret = "router-payment-secret"

func newEngine(t *testing.T) (*gin.Engine, *stubAnalytics) {
	r, analytics, _ := newEngineWithOrders(t)
	return r, analytics
}

func newEngineWithOrders(t *testing.T) (*gin.Engine, *stubAnalytics, *stubOrder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jwt.Init("router-test-secret", 10, 24)

	analytics := &stubAnalytics{}
	orders := &stubOrder{}
	handlers := handler.NewHandlers(&service.Services{Analytics: analytics, Order: orders}, nil)
	r := gin.New()
	NewRouter(handlers, testPaymentSecret).RegisterRoutes(r)
	return r, analytics, orders
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func token(t *testing.T, role string) string {
	t.Helper()
	tk, err := jwt.GenerateAccessToken("7", role)
	require.NoError(t, err)
	return tk
}

func TestRoutes_RoleGuards(t *testing.T) {
	r, analytics := newEngine(t)

	w := get(r, "/api/analytics/overview?kindergarten_id=3", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, "/api/analytics/overview?kindergarten_id=3", token(t, model.RoleParent))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = get(r, "/api/analytics/overview?kindergarten_id=3", token(t, model.RoleTeacher))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, analytics.calls)

	w = get(r, "/api/analytics/overview?kindergarten_id=3", token(t, model.RolePrincipal))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, analytics.calls)
	assert.Contains(t, w.Body.String(), `"kindergarten_id":3`)
}

func TestRoutes_RefreshTokenRejectedAsAccess(t *testing.T) {
	r, _ := newEngine(t)

	refresh, _, err := jwt.GenerateRefreshToken("7", model.RoleAdmin)
	require.NoError(t, err)
	w := get(r, "/api/analytics/overview", refresh)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoutes_StaffOnlyWrites(t *testing.T) {
	r, _ := newEngine(t)

	// 教师可读学生，但不能写
	req := httptest.NewRequest(http.MethodPost, "/api/students", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, model.RoleTeacher))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 家长不能访问学生档案
	w = get(r, "/api/students", token(t, model.RoleParent))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRoutes_Metrics(t *testing.T) {
	r, _ := newEngine(t)

	w := get(r, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_PaymentCallbackRequiresSignature(t *testing.T) {
	r, _, orders := newEngineWithOrders(t)
	body := `{"order_no":"AO1","transaction_id":"forged","status":"success","amount":"88.50"}`

	post := func(sig string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/payments/callback", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if sig != "" {
			req.Header.Set(middleware.PaymentSignatureHeader, sig)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	// 匿名伪造回调不能把订单置为已支付
	assert.Equal(t, http.StatusUnauthorized, post("").Code)
	assert.Equal(t, http.StatusUnauthorized, post(middleware.SignPayload("guess", []byte(body))).Code)
	assert.Empty(t, orders.callbacks)

	w := post(middleware.SignPayload(testPaymentSecret, []byte(body)))
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, orders.callbacks, 1)
	assert.Equal(t, "AO1", orders.callbacks[0].OrderNo)
	assert.Equal(t, "forged", orders.callbacks[0].TransactionID)
}
