package sms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindergarten_server/internal/config"
	"kindergarten_server/internal/testutil"
	"kindergarten_server/pkg/constants"
	"kindergarten_server/pkg/errorx"
)

func TestShouldUseMock(t *testing.T) {
	tests := []struct {
		name string
		conf config.AuthCodeConfig
		want bool
	}{
		{"explicit mock", config.AuthCodeConfig{Mode: "mock", AccessKeyID: "ak", AccessKeySecret: "sk"}, true},
		{"explicit aliyun", config.AuthCodeConfig{Mode: "aliyun"}, false},
		{"empty keys", config.AuthCodeConfig{}, true},
		{"placeholder keys", config.AuthCodeConfig{AccessKeyID: "your AccessKey ID", AccessKeySecret: "your AccessKey Secret"}, true},
		{"real keys", config.AuthCodeConfig{AccessKeyID: "LTAI5t", AccessKeySecret: "abc"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldUseMock(tt.conf))
		})
	}
}

func TestLocalSms_CodeLifecycle(t *testing.T) {
	ctx := context.Background()
	cache := testutil.NewMemoryCache()
	svc, err := Init(config.AuthCodeConfig{Mode: "mock"}, cache)
	require.NoError(t, err)

	const phone = "13800000000"
	require.NoError(t, svc.SendVerificationCode(ctx, phone))

	// 有效期内再次发送被限流
	err = svc.SendVerificationCode(ctx, phone)
	require.Error(t, err)
	assert.Equal(t, errorx.CodeTooManyRequests, errorx.GetCode(err))

	code, err := cache.Get(ctx, constants.CacheKeyAuthCode+phone)
	require.NoError(t, err)
	require.Len(t, code, 6)

	err = svc.VerifyCode(ctx, phone, "000000x")
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))

	require.NoError(t, svc.VerifyCode(ctx, phone, code))
	// 验证码只能使用一次
	assert.Error(t, svc.VerifyCode(ctx, phone, code))
	// 校验后可以重新发送
	assert.NoError(t, svc.SendVerificationCode(ctx, phone))
}

func TestLocalSms_CacheFailure(t *testing.T) {
	cache := testutil.NewMemoryCache()
	cache.Err = errorx.New(errorx.CodeCacheError, "redis down")
	svc, err := Init(config.AuthCodeConfig{Mode: "mock"}, cache)
	require.NoError(t, err)

	err = svc.SendVerificationCode(context.Background(), "13800000001")
	assert.Equal(t, errorx.CodeServerBusy, errorx.GetCode(err))
	assert.NoError(t, svc.SendNotification(context.Background(), "13800000001", "hello"))
}
