package repository_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"kindergarten_server/internal/model"
	"kindergarten_server/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationMarkFailed_TruncatesOnRuneBoundary(t *testing.T) {
	repos := testutil.NewRepos(t)
	n := &model.Notification{UserID: 1, Title: "报名成功", Channel: model.ChannelSMS, Status: model.NotifyPending}
	require.NoError(t, repos.Notification.CreateBatch([]*model.Notification{n}))

	// 前缀 1 字节，使第 500 字节落在汉字中间
	reason := "x" + strings.Repeat("短信网关超时", 100)
	require.NoError(t, repos.Notification.MarkFailed(n.ID, reason))

	got, err := repos.Notification.FindByID(n.ID)
	require.NoError(t, err)
	assert.Equal(t, model.NotifyFailed, got.Status)
	assert.Equal(t, 1, got.Attempts)
	assert.True(t, utf8.ValidString(got.LastError))
	assert.LessOrEqual(t, len(got.LastError), 500)
	assert.True(t, strings.HasPrefix(reason, got.LastError))

	require.NoError(t, repos.Notification.MarkFailed(n.ID, "timeout"))
	got, err = repos.Notification.FindByID(n.ID)
	require.NoError(t, err)
	assert.Equal(t, "timeout", got.LastError)
	assert.Equal(t, 2, got.Attempts)
}
