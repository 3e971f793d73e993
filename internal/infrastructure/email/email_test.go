package email

import (
	"context"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindergarten_server/internal/config"
	"kindergarten_server/pkg/errorx"
)

func TestConsoleService_Send(t *testing.T) {
	svc := NewConsoleService(mail.Address{Name: "Kindergarten", Address: "noreply@example.com"}, "[KG] ")

	msg := Message{
		To:          []mail.Address{{Name: "Parent", Address: "parent@example.com"}},
		Subject:     "拼团成功",
		TextContent: "您参与的拼团已成团",
	}
	require.NoError(t, svc.Send(context.Background(), msg))

	sent := svc.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "拼团成功", sent[0].Subject)
}

func TestConsoleService_RejectsEmptyMessage(t *testing.T) {
	svc := NewConsoleService(mail.Address{Address: "noreply@example.com"}, "")

	err := svc.Send(context.Background(), Message{Subject: "no recipients", TextContent: "x"})
	require.Error(t, err)
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))

	err = svc.Send(context.Background(), Message{To: []mail.Address{{Address: "a@b.c"}}})
	require.Error(t, err)
	assert.Empty(t, svc.Sent())
}

func TestNewEmailService_FallsBackToConsole(t *testing.T) {
	_, ok := NewEmailService(config.EmailConfig{Mode: "console"}).(*ConsoleService)
	assert.True(t, ok)

	// sendgrid 模式缺少 key 时降级
	_, ok = NewEmailService(config.EmailConfig{Mode: "sendgrid"}).(*ConsoleService)
	assert.True(t, ok)

	_, ok = NewEmailService(config.EmailConfig{Mode: "sendgrid", SendgridKey: "SG.xxx"}).(*sendgridService)
	assert.True(t, ok)
}

func TestSendgridService_Prepare(t *testing.T) {
	svc := NewSendgridService("SG.key", mail.Address{Name: "KG", Address: "noreply@example.com"}, "[KG] ").(*sendgridService)
	m := svc.prepare(Message{
		To:          []mail.Address{{Name: "A", Address: "a@example.com"}},
		Subject:     "hello",
		TextContent: "text",
		HTMLContent: "<p>html</p>",
	})

	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[KG] hello", m.Personalizations[0].Subject)
	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "text/html", m.Content[1].Type)
}
