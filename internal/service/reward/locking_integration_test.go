//go:build integration

package reward

import (
	"testing"

	"kindergarten_server/internal/testutil"
)

func TestCheckAndAward_MySQLConcurrentChecksAwardOnce(t *testing.T) {
	awardOnceUnderParallelChecks(t, newFixtureOn(t, testutil.NewMySQLRepos(t)))
}
