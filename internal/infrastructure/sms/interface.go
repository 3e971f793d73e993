// Package sms 提供短信服务
// 登录验证码与业务通知短信共用一个接口，支持阿里云与本地 mock 两种实现
package sms

import "context"

// SmsService 短信服务接口
// Service 层应依赖此接口而非具体实现
type SmsService interface {
	// SendVerificationCode 发送登录验证码，同一手机号在有效期内只能发送一次
	SendVerificationCode(ctx context.Context, telephone string) error
	// VerifyCode 校验验证码，校验成功后验证码失效
	VerifyCode(ctx context.Context, telephone, code string) error
	// SendNotification 发送业务通知短信
	SendNotification(ctx context.Context, telephone, content string) error
}

var (
	_ SmsService = (*aliyunSmsService)(nil)
	_ SmsService = (*localSmsService)(nil)
)
