package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/cineshelf/internal/config"
	"github.com/patric-chuzhbe/cineshelf/internal/models"
	"github.com/patric-chuzhbe/cineshelf/internal/notifier"
	"github.com/patric-chuzhbe/cineshelf/internal/session"
	"github.com/patric-chuzhbe/cineshelf/internal/tmdb/tmdbtest"
)

func setupEnv(t *testing.T) *tmdbtest.Server {
	t.Helper()
	server := tmdbtest.New()
	t.Cleanup(server.Close)

	t.Setenv("TMDB_BASE_URL", server.URL)
	t.Setenv("TMDB_API_KEY", tmdbtest.APIKey)
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("LOG_LEVEL", "error")

	return server
}

func newTestApp(t *testing.T, recorder *notifier.Recorder) *App {
	t.Helper()
	app, err := New(
		context.Background(),
		WithConfigOptions(config.WithDisableFlagsParsing(true)),
		WithNotifier(recorder),
	)
	require.NoError(t, err)

	return app
}

func TestStorageSelection(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want int
	}{
		{name: "nothing configured", cfg: config.Config{}, want: models.StorageTypeMemory},
		{name: "json file", cfg: config.Config{DBFileName: "db.json"}, want: models.StorageTypeFile},
		{name: "bolt wins over json", cfg: config.Config{DBFileName: "db.json", BoltPath: "db.bolt"}, want: models.StorageTypeBolt},
		{name: "sqlite wins over bolt", cfg: config.Config{BoltPath: "db.bolt", SQLitePath: "db.sqlite"}, want: models.StorageTypeSQLite},
		{name: "postgres wins over everything", cfg: config.Config{DatabaseDSN: "dsn", SQLitePath: "db.sqlite"}, want: models.StorageTypePostgresql},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			assert.Equal(t, tt.want, getAvailableStorageType(&cfg))
		})
	}
}

// The whole flow survives a restart: the session pointer and the favorites
// list are read back from the same file.
func TestPersistenceAcrossRestarts(t *testing.T) {
	backends := []struct {
		env  string
		file string
	}{
		{env: "FILE_STORAGE_PATH", file: "cineshelf.json"},
		{env: "BOLT_PATH", file: "cineshelf.bolt"},
		{env: "SQLITE_PATH", file: "cineshelf.sqlite"},
	}
	for _, backend := range backends {
		t.Run(backend.env, func(t *testing.T) {
			ctx := context.Background()
			server := setupEnv(t)
			server.SetPopular(models.MediaKindMovie, tmdbtest.Page("Movie", 603))
			server.SetPopular(models.MediaKindTV, tmdbtest.Page("Series", 1399))
			t.Setenv(backend.env, filepath.Join(t.TempDir(), backend.file))

			recorder := &notifier.Recorder{}
			first := newTestApp(t, recorder)
			assert.Equal(t, session.Anonymous, first.Session.State().Phase)

			first.Catalog.LoadInitial(ctx)
			catalogState := first.Catalog.State()
			require.Empty(t, catalogState.Err)
			require.Len(t, catalogState.Movies, 1)

			require.True(t, first.Session.Register(ctx, "Ana", "ana@x.com", "123456"))
			require.True(t, first.Favorites.Add(ctx, catalogState.Movies[0].Favorite()))
			require.NoError(t, first.Close())

			second := newTestApp(t, recorder)
			defer second.Close()

			state := second.Session.State()
			assert.Equal(t, session.Authenticated, state.Phase)
			assert.Equal(t, "ana@x.com", state.User.Email)
			assert.True(t, second.Favorites.Contains(603))

			require.True(t, second.Session.Logout(ctx))
			assert.Empty(t, second.Favorites.Items())
			assert.Empty(t, recorder.Alerts())
		})
	}
}

func TestInvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("LOG_LEVEL", "chatty")

	_, err := New(context.Background(), WithConfigOptions(config.WithDisableFlagsParsing(true)))
	assert.Error(t, err)
}
