package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/dto/respond"
	"kindergarten_server/internal/service"
	"kindergarten_server/pkg/errorx"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := InitTrans("zh"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// stubAuth 未覆盖的方法调用时 panic
type stubAuth struct {
	service.AuthService
	loginErr   error
	registered *request.RegisterRequest
}

func (s *stubAuth) Login(_ context.Context, req request.LoginRequest) (*respond.LoginRespond, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &respond.LoginRespond{
		UserInfoRespond: respond.UserInfoRespond{Username: req.Username},
		AccessToken:     "access",
		RefreshToken:    "refresh",
	}, nil
}

func (s *stubAuth) Register(_ context.Context, req request.RegisterRequest) (*respond.LoginRespond, error) {
	s.registered = &req
	return &respond.LoginRespond{AccessToken: "access"}, nil
}

type stubStudent struct {
	service.StudentService
	deleted uint
}

func (s *stubStudent) Delete(_, id uint) error {
	s.deleted = id
	return nil
}

func doJSON(r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func authRouter(svc service.AuthService) *gin.Engine {
	h := NewAuthHandler(svc)
	r := gin.New()
	r.POST("/login", h.Login)
	r.POST("/register", h.Register)
	return r
}

func TestLogin_Envelope(t *testing.T) {
	r := authRouter(&stubAuth{})

	w, body := doJSON(r, http.MethodPost, "/login", gin.H{"username": "alice", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, errorx.CodeSuccess, body["code"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "alice", data["username"])
	assert.Equal(t, "access", data["access_token"])
}

func TestLogin_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"user not exist", errorx.New(errorx.CodeUserNotExist, "用户不存在"), http.StatusNotFound, errorx.CodeUserNotExist},
		{"bad password", errorx.New(errorx.CodeInvalidPassword, "密码错误"), http.StatusBadRequest, errorx.CodeInvalidPassword},
		{"disabled", errorx.Forbidden("账号已被禁用"), http.StatusForbidden, errorx.CodeForbidden},
		{"wrapped conflict", fmt.Errorf("login: %w", errorx.Conflict("重复")), http.StatusConflict, errorx.CodeConflict},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, errorx.CodeServerBusy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := authRouter(&stubAuth{loginErr: tc.err})
			w, body := doJSON(r, http.MethodPost, "/login", gin.H{"username": "alice", "password": "password123"})
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, false, body["success"])
			assert.EqualValues(t, tc.code, body["code"])
			assert.NotContains(t, body, "data")
		})
	}
}

func TestLogin_ParamErrorTranslated(t *testing.T) {
	r := authRouter(&stubAuth{})

	w, body := doJSON(r, http.MethodPost, "/login", gin.H{"username": "alice"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.EqualValues(t, errorx.CodeInvalidParam, body["code"])
	msg, ok := body["message"].(map[string]any)
	require.True(t, ok, "validator errors are returned per field")
	assert.Contains(t, msg, "password")
}

func TestRegister_MobileRule(t *testing.T) {
	svc := &stubAuth{}
	r := authRouter(svc)

	w, body := doJSON(r, http.MethodPost, "/register", gin.H{
		"username": "parent01", "password": "password123", "telephone": "12345",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	msg := body["message"].(map[string]any)
	assert.Equal(t, "telephone必须是有效的手机号", msg["telephone"])
	assert.Nil(t, svc.registered)

	w, _ = doJSON(r, http.MethodPost, "/register", gin.H{
		"username": "parent01", "password": "password123", "telephone": "13800138000",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.registered)
	assert.Equal(t, "13800138000", svc.registered.Telephone)
}

func TestPathID(t *testing.T) {
	svc := &stubStudent{}
	h := NewStudentHandler(svc)
	r := gin.New()
	r.DELETE("/students/:id", h.Delete)

	w, body := doJSON(r, http.MethodDelete, "/students/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.EqualValues(t, errorx.CodeInvalidParam, body["code"])

	w, _ = doJSON(r, http.MethodDelete, "/students/0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, svc.deleted)

	w, _ = doJSON(r, http.MethodDelete, "/students/42", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 42, svc.deleted)
}
