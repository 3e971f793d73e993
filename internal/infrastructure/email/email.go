// Package email 提供邮件发送服务
// sendgrid 模式调用 SendGrid v3 API，console 模式只打印到日志（开发环境）
package email

import (
	"context"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"kindergarten_server/internal/config"
)

// Message 一封邮件
type Message struct {
	To          []mail.Address
	Subject     string
	TextContent string
	HTMLContent string
}

// HasRecipients 是否有收件人
func (m Message) HasRecipients() bool {
	return len(m.To) > 0
}

// HasContent 是否有正文
func (m Message) HasContent() bool {
	return m.TextContent != "" || m.HTMLContent != ""
}

// EmailService 邮件服务接口
type EmailService interface {
	// Send 同步发送，失败返回错误由调用方决定是否重试
	Send(ctx context.Context, msg Message) error
}

// NewEmailService 根据配置选择实现
func NewEmailService(conf config.EmailConfig) EmailService {
	prefix := conf.SubjectPrefix
	if prefix != "" && !strings.HasSuffix(prefix, " ") {
		prefix += " "
	}
	from := mail.Address{Name: conf.FromName, Address: conf.FromAddress}

	if strings.EqualFold(conf.Mode, "sendgrid") {
		if conf.SendgridKey == "" {
			zap.L().Warn("emailConfig.mode=sendgrid 但未配置 sendgridKey，降级为 console")
		} else {
			return NewSendgridService(conf.SendgridKey, from, prefix)
		}
	}
	return NewConsoleService(from, prefix)
}
