//go:build integration

package groupbuy

import (
	"testing"

	"kindergarten_server/internal/testutil"
)

func TestJoin_MySQLConcurrentNeverExceedsMax(t *testing.T) {
	joinUntilFull(t, newFixtureOn(t, testutil.NewMySQLRepos(t)))
}
