//go:build integration

package activity

import (
	"testing"

	"kindergarten_server/internal/testutil"
)

func TestRegister_MySQLConcurrentStopsAtCapacity(t *testing.T) {
	registerUntilFull(t, newFixtureOn(t, testutil.NewMySQLRepos(t)))
}

func TestRegister_MySQLConcurrentDuplicatesRegisterOnce(t *testing.T) {
	registerDuplicatesOnce(t, newFixtureOn(t, testutil.NewMySQLRepos(t)))
}
