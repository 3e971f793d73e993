package snowflake

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_MachineRange(t *testing.T) {
	assert.Error(t, Init(-1))
	assert.Error(t, Init(1024))
	require.NoError(t, Init(7))
}

func TestGenerateOrderNo(t *testing.T) {
	require.NoError(t, Init(7))

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		no := GenerateOrderNo("AO")
		require.True(t, strings.HasPrefix(no, "AO"))
		_, dup := seen[no]
		require.False(t, dup, "duplicate order no %s", no)
		seen[no] = struct{}{}
	}
}

func TestParseOrderNo(t *testing.T) {
	require.NoError(t, Init(7))
	before := time.Now().Add(-time.Second)

	id, err := ParseOrderNo("GB", GenerateOrderNo("GB"))
	require.NoError(t, err)
	assert.EqualValues(t, 7, id.Node())
	assert.True(t, time.UnixMilli(id.Time()).After(before))

	_, err = ParseOrderNo("GB", "AO123")
	assert.Error(t, err)
	_, err = ParseOrderNo("GB", "GBnot-a-number")
	assert.Error(t, err)
}
