package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/deckforge/cardscript-engine-go/internal/board"
	"github.com/deckforge/cardscript-engine-go/internal/cardset"
	"github.com/deckforge/cardscript-engine-go/internal/config"
)

// testDB connects to the database named by CARDSCRIPT_TEST_DATABASE_URL, or
// skips the test when none is configured.
func testDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("CARDSCRIPT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CARDSCRIPT_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := NewDB(ctx, config.DatabaseConfig{
		URL:     url,
		Timeout: 5 * time.Second,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx))
	_, err = db.Pool().Exec(ctx, `TRUNCATE card_templates`)
	require.NoError(t, err)
	return db
}

func TestTemplateRepositoryRoundTrip(t *testing.T) {
	db := testDB(t)
	repo := NewTemplateRepository(db, zaptest.NewLogger(t))
	ctx := context.Background()

	tpl := board.CardTemplate{
		Name:     "Drone",
		CardType: "unit",
		FaceUp:   true,
		Tokens:   map[string]int{"charge": 2},
	}
	require.NoError(t, repo.Upsert(ctx, "core", tpl))

	got, err := repo.Template(ctx, "Drone")
	require.NoError(t, err)
	assert.Equal(t, tpl, got)

	// Upsert replaces the existing row.
	tpl.CardType = "structure"
	require.NoError(t, repo.Upsert(ctx, "core", tpl))
	got, err = repo.Template(ctx, "Drone")
	require.NoError(t, err)
	assert.Equal(t, "structure", got.CardType)

	_, err = repo.Template(ctx, "Phantom")
	assert.ErrorIs(t, err, cardset.ErrTemplateNotFound)
}

func TestTemplateRepositoryUpsertSet(t *testing.T) {
	db := testDB(t)
	repo := NewTemplateRepository(db, zaptest.NewLogger(t))
	ctx := context.Background()

	set := cardset.Set{
		Name: "core",
		Templates: []board.CardTemplate{
			{Name: "Drone", CardType: "unit"},
			{Name: "Wall", CardType: "structure"},
		},
	}
	require.NoError(t, repo.UpsertSet(ctx, set))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	templates, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, "Drone", templates[0].Name)
	assert.Equal(t, "Wall", templates[1].Name)
}
