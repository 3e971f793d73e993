// Package jwt 签发与校验双 Token
// Access Token 短期用于接口认证，Refresh Token 携带 TokenID 用于单点互踢
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	SubjectAccess  = "access_token"
	SubjectRefresh = "refresh_token"
	issuer         = "kindergarten"
)

// JWTConfig JWT 配置
type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// 全局配置，由 Init 函数初始化
var jwtConfig *JWTConfig

var errNotInitialized = errors.New("jwt not initialized")

// Init 初始化 JWT 配置
func Init(secret string, accessExpiryMinutes, refreshExpiryHours int) {
	jwtConfig = &JWTConfig{
		Secret:             secret,
		AccessTokenExpiry:  time.Duration(accessExpiryMinutes) * time.Minute,
		RefreshTokenExpiry: time.Duration(refreshExpiryHours) * time.Hour,
	}
}

// Claims 自定义 JWT 声明，UserID 为账号主键的十进制字符串
type Claims struct {
	UserID  string `json:"user_id"`
	Role    string `json:"role,omitempty"`
	TokenID string `json:"token_id,omitempty"` // 仅 Refresh Token 使用
	jwt.RegisteredClaims
}

func sign(claims Claims, subject string, ttl time.Duration) (string, error) {
	if jwtConfig == nil {
		return "", errNotInitialized
	}
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    issuer,
		Subject:   subject,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtConfig.Secret))
}

// GenerateAccessToken 生成 Access Token
func GenerateAccessToken(userID, role string) (string, error) {
	if jwtConfig == nil {
		return "", errNotInitialized
	}
	return sign(Claims{UserID: userID, Role: role}, SubjectAccess, jwtConfig.AccessTokenExpiry)
}

// GenerateRefreshToken 生成 Refresh Token
// 返回的 tokenID 写入 Redis，刷新时与 Token 内的值比对
func GenerateRefreshToken(userID, role string) (tokenString string, tokenID string, err error) {
	if jwtConfig == nil {
		return "", "", errNotInitialized
	}
	tokenID = uuid.NewString()
	tokenString, err = sign(Claims{UserID: userID, Role: role, TokenID: tokenID}, SubjectRefresh, jwtConfig.RefreshTokenExpiry)
	return
}

// RefreshTokenExpiry Refresh Token 有效期，未初始化时为 0
func RefreshTokenExpiry() time.Duration {
	if jwtConfig == nil {
		return 0
	}
	return jwtConfig.RefreshTokenExpiry
}

// ParseToken 解析并验证 Token：签名算法、签发方、有效期
// Subject 由调用方按用途校验
func ParseToken(tokenString string) (*Claims, error) {
	if jwtConfig == nil {
		return nil, errNotInitialized
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return []byte(jwtConfig.Secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
