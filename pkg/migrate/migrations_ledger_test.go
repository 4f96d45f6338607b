package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const migrationsDir = "migrations"

func TestMigrationsDirValidates(t *testing.T) {
	require.NoError(t, ValidateDir(migrationsDir))
}

func TestLedgerMigrationCarriesUniquenessBackstop(t *testing.T) {
	content := readMigration(t, "create_point_transactions")
	assert.Contains(t, content, "uniq_point_transactions_source")
	assert.Contains(t, content, "WHERE source_id IS NOT NULL")
	assert.Contains(t, content, "CHECK (delta <> 0)")
}

func TestBalancesMigrationForbidsNegativePoints(t *testing.T) {
	content := readMigration(t, "create_balances")
	assert.Contains(t, content, "CHECK (current_points >= 0)")
	assert.Contains(t, content, "CHECK (lifetime_points >= 0)")
}

func TestQuestProgressMigrationEnforcesSingleRun(t *testing.T) {
	content := readMigration(t, "create_quest_progress")
	assert.Contains(t, content, "uniq_quest_progress_customer_quest")
	assert.Contains(t, content, "UNIQUE (customer_id, quest_id)")
}

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	entries, err := os.ReadDir(migrationsDir)
	require.NoError(t, err)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), suffix+".sql") {
			b, err := os.ReadFile(filepath.Join(migrationsDir, e.Name()))
			require.NoError(t, err)
			return string(b)
		}
	}
	t.Fatalf("no migration ending in %s.sql", suffix)
	return ""
}
