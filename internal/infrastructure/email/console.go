package email

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"kindergarten_server/pkg/errorx"
)

// ConsoleService 开发环境邮件服务，邮件内容写入日志并保存在内存中
type ConsoleService struct {
	from       mail.Address
	subjPrefix string

	mu   sync.Mutex
	sent []Message
}

var _ EmailService = (*ConsoleService)(nil)

// NewConsoleService 创建控制台邮件服务
func NewConsoleService(from mail.Address, subjPrefix string) *ConsoleService {
	return &ConsoleService{from: from, subjPrefix: subjPrefix}
}

func (svc *ConsoleService) Send(_ context.Context, msg Message) error {
	if !msg.HasRecipients() || !msg.HasContent() {
		return errorx.BadRequest("邮件缺少收件人或正文")
	}

	body := new(strings.Builder)
	_, _ = fmt.Fprintf(body, "From: %s\r\n", svc.from.String())
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", svc.subjPrefix+msg.Subject)
	_, _ = fmt.Fprintf(body, "To: %s\r\n\r\n", joinAddresses(msg.To))
	_, _ = fmt.Fprintf(body, "%s\r\n", msg.TextContent)
	zap.L().Info("【ConsoleEmail】", zap.String("mail", body.String()))

	svc.mu.Lock()
	svc.sent = append(svc.sent, msg)
	svc.mu.Unlock()
	return nil
}

// Sent 已发送的邮件副本
func (svc *ConsoleService) Sent() []Message {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	out := make([]Message, len(svc.sent))
	copy(out, svc.sent)
	return out
}

func joinAddresses(addrs []mail.Address) string {
	list := make([]string, 0, len(addrs))
	for _, a := range addrs {
		list = append(list, a.String())
	}
	return strings.Join(list, ", ")
}
