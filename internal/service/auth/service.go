// Package auth 提供认证相关的业务逻辑
// 账号密码登录、家长注册、短信登录与 Token 刷新
package auth

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"kindergarten_server/internal/dao/mysql/repository"
	myredis "kindergarten_server/internal/dao/redis"
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/dto/respond"
	"kindergarten_server/internal/infrastructure/sms"
	"kindergarten_server/internal/model"
	"kindergarten_server/pkg/constants"
	"kindergarten_server/pkg/errorx"
	"kindergarten_server/pkg/util/jwt"
	"kindergarten_server/pkg/util/random"
)

// authService 认证服务实现
type authService struct {
	repos *repository.Repositories
	cache myredis.CacheService
	sms   sms.SmsService
}

// NewAuthService 创建认证服务实例
func NewAuthService(repos *repository.Repositories, cache myredis.CacheService, smsService sms.SmsService) *authService {
	return &authService{repos: repos, cache: cache, sms: smsService}
}

func tokenKey(uuid string) string {
	return constants.CacheKeyUserToken + uuid
}

// Login 账号密码登录
func (s *authService) Login(ctx context.Context, req request.LoginRequest) (*respond.LoginRespond, error) {
	user, err := s.repos.User.FindByUsername(req.Username)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeUserNotExist, "用户不存在")
		}
		return nil, err
	}
	if !user.CheckPassword(req.Password) {
		return nil, errorx.New(errorx.CodeInvalidPassword, "密码不正确，请重试")
	}
	return s.issueTokens(ctx, user)
}

// SendSmsCode 发送登录验证码，限流由短信服务负责
func (s *authService) SendSmsCode(ctx context.Context, req request.SendSmsCodeRequest) error {
	return s.sms.SendVerificationCode(ctx, req.Telephone)
}

// SmsLogin 验证码登录
func (s *authService) SmsLogin(ctx context.Context, req request.SmsLoginRequest) (*respond.LoginRespond, error) {
	user, err := s.repos.User.FindByTelephone(req.Telephone)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.New(errorx.CodeUserNotExist, "用户不存在，请注册")
		}
		return nil, err
	}
	if err := s.sms.VerifyCode(ctx, req.Telephone, req.SmsCode); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

// Register 家长自助注册，注册成功后直接登录
// 携带验证码时先校验手机号
func (s *authService) Register(ctx context.Context, req request.RegisterRequest) (*respond.LoginRespond, error) {
	if req.SmsCode != "" {
		if err := s.sms.VerifyCode(ctx, req.Telephone, req.SmsCode); err != nil {
			return nil, err
		}
	}
	if _, err := s.repos.User.FindByUsername(req.Username); err == nil {
		return nil, errorx.New(errorx.CodeUserExist, "用户名已被占用")
	} else if !errorx.IsNotFound(err) {
		return nil, err
	}
	if _, err := s.repos.User.FindByTelephone(req.Telephone); err == nil {
		return nil, errorx.New(errorx.CodeUserExist, "该电话已经存在，注册失败")
	} else if !errorx.IsNotFound(err) {
		return nil, err
	}
	if req.KindergartenID != 0 {
		if _, err := s.repos.Kindergarten.FindByID(req.KindergartenID); err != nil {
			if errorx.IsNotFound(err) {
				return nil, errorx.BadRequest("幼儿园不存在")
			}
			return nil, err
		}
	}

	nickname := req.Nickname
	if nickname == "" {
		nickname = req.Username
	}
	user := &model.User{
		Uuid:           "U" + random.GetNowAndLenRandomString(11),
		Username:       req.Username,
		Nickname:       nickname,
		Telephone:      req.Telephone,
		Email:          req.Email,
		Role:           model.RoleParent,
		KindergartenID: req.KindergartenID,
		Status:         model.UserStatusNormal,
		RawPassword:    req.Password,
	}
	if err := s.repos.User.Create(user); err != nil {
		if errorx.GetCode(err) == errorx.CodeConflict {
			return nil, errorx.New(errorx.CodeUserExist, "用户已存在")
		}
		return nil, err
	}
	zap.L().Info("家长注册成功", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return s.issueTokens(ctx, user)
}

// Refresh 使用 Refresh Token 换取新的双 Token
// Redis 中只保留最近一次签发的 tokenID，旧 Refresh Token 立即失效
func (s *authService) Refresh(ctx context.Context, req request.RefreshTokenRequest) (*respond.LoginRespond, error) {
	claims, err := jwt.ParseToken(req.RefreshToken)
	if err != nil || claims.Subject != jwt.SubjectRefresh || claims.TokenID == "" {
		return nil, errorx.Unauthorized("Refresh Token 无效或已过期")
	}
	id, err := strconv.ParseUint(claims.UserID, 10, 64)
	if err != nil {
		return nil, errorx.Unauthorized("Refresh Token 无效或已过期")
	}
	user, err := s.repos.User.FindByID(uint(id))
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.Unauthorized("用户不存在")
		}
		return nil, err
	}

	valid, err := s.cache.Get(ctx, tokenKey(user.Uuid))
	if err != nil {
		zap.L().Error("读取 Token ID 失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	if valid == "" || valid != claims.TokenID {
		return nil, errorx.Unauthorized("登录已失效，请重新登录")
	}
	return s.issueTokens(ctx, user)
}

// Logout 删除 Redis 中的 tokenID，已签发的 Refresh Token 随之失效
func (s *authService) Logout(ctx context.Context, userID uint) error {
	user, err := s.repos.User.FindByID(userID)
	if err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, tokenKey(user.Uuid)); err != nil {
		zap.L().Error("删除 Token ID 失败", zap.Error(err))
		return errorx.ErrServerBusy
	}
	return nil
}

// Me 当前登录用户信息
func (s *authService) Me(userID uint) (*respond.UserInfoRespond, error) {
	user, err := s.repos.User.FindByID(userID)
	if err != nil {
		return nil, err
	}
	rsp := toUserInfo(user)
	return &rsp, nil
}

// issueTokens 签发双 Token 并记录 Refresh Token ID
func (s *authService) issueTokens(ctx context.Context, user *model.User) (*respond.LoginRespond, error) {
	if user.Status == model.UserStatusDisabled {
		return nil, errorx.Forbidden("账号已被禁用")
	}
	uid := strconv.FormatUint(uint64(user.ID), 10)
	accessToken, err := jwt.GenerateAccessToken(uid, user.Role)
	if err != nil {
		zap.L().Error("生成 Access Token 失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	refreshToken, tokenID, err := jwt.GenerateRefreshToken(uid, user.Role)
	if err != nil {
		zap.L().Error("生成 Refresh Token 失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	ttl := jwt.RefreshTokenExpiry()
	if ttl <= 0 {
		ttl = time.Duration(constants.REFRESH_TOKEN_EXPIRY_HOURS) * time.Hour
	}
	// 写入失败时新 Refresh Token 无法使用，这里直接报错
	if err := s.cache.Set(ctx, tokenKey(user.Uuid), tokenID, ttl); err != nil {
		zap.L().Error("存储 Token ID 到 Redis 失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	if err := s.repos.User.UpdateLastLogin(user.ID); err != nil {
		zap.L().Warn("更新登录时间失败", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	return &respond.LoginRespond{
		UserInfoRespond: toUserInfo(user),
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
	}, nil
}

func toUserInfo(user *model.User) respond.UserInfoRespond {
	return respond.UserInfoRespond{
		ID:             user.ID,
		Uuid:           user.Uuid,
		Username:       user.Username,
		Nickname:       user.Nickname,
		Telephone:      user.Telephone,
		Email:          user.Email,
		Role:           user.Role,
		KindergartenID: user.KindergartenID,
		Status:         user.Status,
		CreatedAt:      user.CreatedAt.Format("2006-01-02"),
	}
}
