package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insproduce-backend/internal/database"
)

func TestMigrationNames(t *testing.T) {
	names, err := database.MigrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)

	assert.Equal(t, "001_init.sql", names[0])
	assert.IsIncreasing(t, names)
	for _, name := range names {
		assert.Regexp(t, `^\d{3}_[a-z_]+\.sql$`, name)
	}
}
