package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/model"
	"kindergarten_server/internal/testutil"
	"kindergarten_server/pkg/constants"
	"kindergarten_server/pkg/errorx"
	"kindergarten_server/pkg/util/jwt"
)

func init() {
	jwt.Init("auth-test-secret", 10, 24)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepos(t)
	cache := testutil.NewMemoryCache()
	svc := NewAuthService(repos, cache, testutil.NewFakeSms())
	u := testutil.CreateUserNamed(t, repos, "teacher_li", model.RoleTeacher, 0)

	_, err := svc.Login(ctx, request.LoginRequest{Username: "nobody", Password: "password123"})
	assert.Equal(t, errorx.CodeUserNotExist, errorx.GetCode(err))

	_, err = svc.Login(ctx, request.LoginRequest{Username: "teacher_li", Password: "wrong-pass"})
	assert.Equal(t, errorx.CodeInvalidPassword, errorx.GetCode(err))

	rsp, err := svc.Login(ctx, request.LoginRequest{Username: "teacher_li", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, rsp.ID)
	assert.Equal(t, model.RoleTeacher, rsp.Role)

	claims, err := jwt.ParseToken(rsp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, jwt.SubjectAccess, claims.Subject)
	assert.Equal(t, model.RoleTeacher, claims.Role)

	refresh, err := jwt.ParseToken(rsp.RefreshToken)
	require.NoError(t, err)
	stored, err := cache.Get(ctx, constants.CacheKeyUserToken+u.Uuid)
	require.NoError(t, err)
	assert.Equal(t, refresh.TokenID, stored)
}

func TestLogin_DisabledAccount(t *testing.T) {
	repos := testutil.NewRepos(t)
	svc := NewAuthService(repos, testutil.NewMemoryCache(), testutil.NewFakeSms())
	u := &model.User{Uuid: "U00000000000000000x1", Username: "blocked", Role: model.RoleParent,
		Status: model.UserStatusDisabled, RawPassword: "password123"}
	require.NoError(t, repos.User.Create(u))

	_, err := svc.Login(context.Background(), request.LoginRequest{Username: "blocked", Password: "password123"})
	assert.Equal(t, errorx.CodeForbidden, errorx.GetCode(err))
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepos(t)
	fakeSms := testutil.NewFakeSms()
	svc := NewAuthService(repos, testutil.NewMemoryCache(), fakeSms)
	kg := testutil.CreateKindergarten(t, repos, "阳光幼儿园")

	req := request.RegisterRequest{
		Username: "parent_wang", Password: "secret123", Telephone: "13900000001", KindergartenID: kg.ID,
	}
	rsp, err := svc.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, model.RoleParent, rsp.Role)
	assert.Equal(t, "parent_wang", rsp.Nickname)
	assert.NotEmpty(t, rsp.AccessToken)

	_, err = svc.Login(ctx, request.LoginRequest{Username: "parent_wang", Password: "secret123"})
	require.NoError(t, err)

	t.Run("duplicate username", func(t *testing.T) {
		dup := req
		dup.Telephone = "13900000002"
		_, err := svc.Register(ctx, dup)
		assert.Equal(t, errorx.CodeUserExist, errorx.GetCode(err))
	})
	t.Run("duplicate telephone", func(t *testing.T) {
		dup := req
		dup.Username = "parent_wang2"
		_, err := svc.Register(ctx, dup)
		assert.Equal(t, errorx.CodeUserExist, errorx.GetCode(err))
	})
	t.Run("unknown kindergarten", func(t *testing.T) {
		_, err := svc.Register(ctx, request.RegisterRequest{
			Username: "parent_zhao", Password: "secret123", Telephone: "13900000003", KindergartenID: 999,
		})
		assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))
	})
	t.Run("sms code checked when present", func(t *testing.T) {
		r := request.RegisterRequest{Username: "parent_sun", Password: "secret123", Telephone: "13900000004", SmsCode: "123456"}
		_, err := svc.Register(ctx, r)
		assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))

		require.NoError(t, svc.SendSmsCode(ctx, request.SendSmsCodeRequest{Telephone: r.Telephone}))
		_, err = svc.Register(ctx, r)
		assert.NoError(t, err)
	})
}

func TestSmsLogin(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepos(t)
	fakeSms := testutil.NewFakeSms()
	svc := NewAuthService(repos, testutil.NewMemoryCache(), fakeSms)
	u := testutil.CreateUserNamed(t, repos, "parent_chen", model.RoleParent, 0)

	_, err := svc.SmsLogin(ctx, request.SmsLoginRequest{Telephone: "13700000000", SmsCode: "123456"})
	assert.Equal(t, errorx.CodeUserNotExist, errorx.GetCode(err))

	require.NoError(t, svc.SendSmsCode(ctx, request.SendSmsCodeRequest{Telephone: u.Telephone}))
	err = svc.SendSmsCode(ctx, request.SendSmsCodeRequest{Telephone: u.Telephone})
	assert.Equal(t, errorx.CodeTooManyRequests, errorx.GetCode(err))

	_, err = svc.SmsLogin(ctx, request.SmsLoginRequest{Telephone: u.Telephone, SmsCode: "654321"})
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))

	rsp, err := svc.SmsLogin(ctx, request.SmsLoginRequest{Telephone: u.Telephone, SmsCode: "123456"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, rsp.ID)
}

func TestRefresh_SingleActiveToken(t *testing.T) {
	ctx := context.Background()
	repos := testutil.NewRepos(t)
	cache := testutil.NewMemoryCache()
	svc := NewAuthService(repos, cache, testutil.NewFakeSms())
	testutil.CreateUserNamed(t, repos, "principal_zhou", model.RolePrincipal, 0)

	first, err := svc.Login(ctx, request.LoginRequest{Username: "principal_zhou", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, request.RefreshTokenRequest{RefreshToken: first.AccessToken})
	assert.Equal(t, errorx.CodeUnauthorized, errorx.GetCode(err), "access token cannot refresh")

	second, err := svc.Refresh(ctx, request.RefreshTokenRequest{RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// 旧 Refresh Token 已被替换
	_, err = svc.Refresh(ctx, request.RefreshTokenRequest{RefreshToken: first.RefreshToken})
	assert.Equal(t, errorx.CodeUnauthorized, errorx.GetCode(err))

	require.NoError(t, svc.Logout(ctx, second.ID))
	_, err = svc.Refresh(ctx, request.RefreshTokenRequest{RefreshToken: second.RefreshToken})
	assert.Equal(t, errorx.CodeUnauthorized, errorx.GetCode(err))

	_, err = svc.Refresh(ctx, request.RefreshTokenRequest{RefreshToken: "garbage"})
	assert.Equal(t, errorx.CodeUnauthorized, errorx.GetCode(err))
}

func TestLogin_CacheDown(t *testing.T) {
	repos := testutil.NewRepos(t)
	cache := testutil.NewMemoryCache()
	cache.Err = errorx.New(errorx.CodeCacheError, "redis down")
	svc := NewAuthService(repos, cache, testutil.NewFakeSms())
	testutil.CreateUserNamed(t, repos, "teacher_wu", model.RoleTeacher, 0)

	_, err := svc.Login(context.Background(), request.LoginRequest{Username: "teacher_wu", Password: "password123"})
	assert.Equal(t, errorx.CodeServerBusy, errorx.GetCode(err))
}

func TestMe(t *testing.T) {
	repos := testutil.NewRepos(t)
	svc := NewAuthService(repos, testutil.NewMemoryCache(), testutil.NewFakeSms())
	u := testutil.CreateUserNamed(t, repos, "admin", model.RoleAdmin, 0)

	me, err := svc.Me(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", me.Username)
	assert.Equal(t, u.Uuid, me.Uuid)

	_, err = svc.Me(9999)
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))
}
