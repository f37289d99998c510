package migrations_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tazkarti/tz-booking/internal/pkg/testutil"
	"github.com/tazkarti/tz-booking/migrations"
)

func TestApplyIsRepeatable(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.GreaterOrEqual(t, count, 3)

	require.NoError(t, migrations.Apply(ctx, db))

	var again int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&again))
	assert.Equal(t, count, again)
}
