package repository

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateUTF8(t *testing.T) {
	assert.Equal(t, "abc", truncateUTF8("abc", 5))
	assert.Equal(t, "ab", truncateUTF8("abc", 2))
	// "短信" 每个字 3 字节
	assert.Equal(t, "短", truncateUTF8("短信", 4))
	assert.Equal(t, "", truncateUTF8("短信", 2))

	long := strings.Repeat("发送失败", 200)
	got := truncateUTF8(long, maxLastErrorBytes)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), maxLastErrorBytes)
	assert.Greater(t, len(got), maxLastErrorBytes-utf8.UTFMax)
}
