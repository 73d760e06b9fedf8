package migration

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepsCreateParentsFirst(t *testing.T) {
	steps := NewRunner(nil).Steps()

	assert.Equal(t, []string{
		"cleaning_sessions",
		"cleaning_runs",
		"cleaning_operations",
		"cell_edits",
		"column_summaries",
	}, steps)
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "1.0.0", NewRunner(nil).Version())
}

func TestRunIsIdempotent(t *testing.T) {
	dsn := os.Getenv("SURVEYCLEAN_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("Skipping live test: SURVEYCLEAN_TEST_DATABASE_URL not set")
	}

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()

	runner := NewRunner(nil)
	require.NoError(t, runner.Run(context.Background(), db))
	require.NoError(t, runner.Run(context.Background(), db))
}
