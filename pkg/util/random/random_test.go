package random

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetRandomInt(t *testing.T) {
	for i := 0; i < 200; i++ {
		n := GetRandomInt(6)
		assert.GreaterOrEqual(t, n, 100000)
		assert.Less(t, n, 1000000)
	}
}

func TestGetShareCode(t *testing.T) {
	code := GetShareCode(8)
	assert.Len(t, code, 8)
	for _, ch := range code {
		assert.True(t, strings.ContainsRune(shareCodeCharset, ch), "unexpected char %q", ch)
	}
	assert.NotContains(t, shareCodeCharset, "0")
	assert.NotContains(t, shareCodeCharset, "O")
}

func TestGetNowAndLenRandomString(t *testing.T) {
	s := GetNowAndLenRandomString(11)
	assert.Len(t, s, 17)
	assert.True(t, strings.HasPrefix(s, time.Now().Format("060102")))
}
