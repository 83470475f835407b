// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GuildGate Contributors

package store

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsFS_EmbeddedFiles(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err, "should read embedded migrations directory")

	fileNames := make(map[string]bool)
	for _, entry := range entries {
		fileNames[entry.Name()] = true
	}

	assert.True(t, fileNames["001_users.up.sql"], "should contain 001_users.up.sql")
	assert.True(t, fileNames["001_users.down.sql"], "should contain 001_users.down.sql")

	pattern := regexp.MustCompile(`^\d{3}_\w+\.(up|down)\.sql$`)
	for _, entry := range entries {
		assert.True(t, pattern.MatchString(entry.Name()),
			"file %s should match pattern NNN_name.(up|down).sql", entry.Name())
	}
}

// The startup fast path executes the first up migration directly, so it
// must stay idempotent and carry the uniqueness invariants.
func TestSchemaSQL_MatchesFirstMigration(t *testing.T) {
	embedded, err := migrationsFS.ReadFile("migrations/001_users.up.sql")
	require.NoError(t, err)
	assert.Equal(t, string(embedded), schemaSQL)

	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS users")
	assert.Contains(t, schemaSQL, "CREATE UNIQUE INDEX IF NOT EXISTS users_nickname_lower_idx")
	assert.True(t, strings.Contains(schemaSQL, "LOWER(nickname)"),
		"nickname uniqueness must be case-insensitive")
}
