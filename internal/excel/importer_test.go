package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/recallbot/internal/database"
	"github.com/example/recallbot/pkg/models"
)

func setupDB(t *testing.T) {
	t.Helper()
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DATA_DIR", t.TempDir())
	require.NoError(t, database.Connect())
	t.Cleanup(func() {
		database.Close()
		database.DB = nil
	})
}

func writeCatalogCSV(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.csv")
	content := "Subject,Lesson,Topic,Description\n" + rows
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestImportCatalogSeedsExistingLearners(t *testing.T) {
	setupDB(t)
	ctx := context.Background()

	// The learner registers before any topics exist.
	learner := &models.Learner{TelegramChatID: 42, Username: "sam"}
	require.NoError(t, database.NewLearnerRepository().Create(ctx, learner))

	config := DefaultImportConfig()
	config.FilePath = writeCatalogCSV(t,
		"Math,Algebra,Linear equations,Intro\n"+
			"Math,Algebra,Quadratic equations,\n"+
			"Math,Geometry,Triangles,Basics\n")

	result, err := ImportCatalog(ctx, config)
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 1, result.SubjectsCreated)
	assert.Equal(t, 2, result.LessonsCreated)
	assert.Equal(t, 3, result.TopicsCreated)
	assert.Empty(t, result.Errors)

	// Topics imported after registration still reach the learner's queue.
	items := database.NewReviewItemRepository()
	seeded, err := items.SeedForLearner(ctx, learner.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 3, seeded)

	due, err := items.CountDue(ctx, learner.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 3, due)
}

func TestImportCatalogIsIdempotent(t *testing.T) {
	setupDB(t)
	ctx := context.Background()

	config := DefaultImportConfig()
	config.FilePath = writeCatalogCSV(t,
		"Math,Algebra,Linear equations,Intro\n"+
			"Math,Algebra,Quadratic equations,\n")

	first, err := ImportCatalog(ctx, config)
	require.NoError(t, err)
	require.Equal(t, 2, first.TopicsCreated)

	second, err := ImportCatalog(ctx, config)
	require.NoError(t, err)
	assert.Equal(t, 0, second.SubjectsCreated)
	assert.Equal(t, 0, second.LessonsCreated)
	assert.Equal(t, 0, second.TopicsCreated)
	assert.Equal(t, 2, second.Skipped)
}

func TestImportCatalogSkipsIncompleteRows(t *testing.T) {
	setupDB(t)
	ctx := context.Background()

	config := DefaultImportConfig()
	config.FilePath = writeCatalogCSV(t,
		"Math,Algebra,Linear equations,Intro\n"+
			"Math,,Orphan topic,\n"+
			",,,\n")

	result, err := ImportCatalog(ctx, config)
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 1, result.TopicsCreated)
	assert.Equal(t, 2, result.Skipped)
	assert.Empty(t, result.Errors)
}
