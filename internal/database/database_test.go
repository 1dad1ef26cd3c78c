package database_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/familyrecipes/backend/config"
	"github.com/pageza/familyrecipes/backend/internal/database"
	"github.com/pageza/familyrecipes/backend/internal/models"
	"github.com/pageza/familyrecipes/backend/internal/pkg/logger"
	"github.com/pageza/familyrecipes/backend/internal/testhelpers"
)

func TestDSN(t *testing.T) {
	cfg := &config.Config{
		DBHost:     "db",
		DBPort:     "5432",
		DBUser:     "app",
		DBPassword: "secret",
		DBName:     "recipes",
		DBSSLMode:  "disable",
	}
	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=recipes sslmode=disable", database.DSN(cfg))
}

func TestMigrationFilesSkipsRollbacks(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"0002_add_index.sql",
		"0001_create_recipes.sql",
		"0001_create_recipes_rollback.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- noop"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.sql"), 0o700))

	files, err := database.MigrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_create_recipes.sql", "0002_add_index.sql"}, files)
}

func TestMigrationFilesMissingDir(t *testing.T) {
	_, err := database.MigrationFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestRepositoryMigrationsAreOrdered(t *testing.T) {
	files, err := database.MigrationFiles("../../migrations")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "0001_create_recipes.sql", files[0])
}

func TestSQLiteSchema(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)

	require.NoError(t, database.HealthCheck(context.Background(), db))
	for _, table := range []interface{}{&models.Item{}, &models.Recipe{}, &models.RecipeIngredient{}, &models.RecipeRating{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}
	assert.True(t, db.Migrator().HasIndex(&models.RecipeRating{}, "idx_recipe_ratings_recipe_user"))

	// Running again on SQLite is a no-op auto-migration.
	require.NoError(t, database.RunMigrations(db, "", logger.NewNop()))
}
