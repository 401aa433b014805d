package updater

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mwantia/updater/internal/gerrit"
	"github.com/mwantia/updater/pkg/db/models"
	"github.com/mwantia/updater/pkg/db/store"
)

func newTestStore(t *testing.T) store.MetadataStore {
	t.Helper()
	ctx := context.Background()

	s, err := store.NewSQLiteStore(store.SQLiteConfig{Path: filepath.Join(t.TempDir(), "updater.db")})
	require.NoError(t, err)
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() { s.Close() })
	return s
}

func addRom(t *testing.T, s store.MetadataStore, filename, device, version, romType string, createdAt time.Time) *models.Rom {
	t.Helper()
	r := &models.Rom{Artifact: models.Artifact{
		Filename:  filename,
		Device:    device,
		Version:   version,
		RomType:   romType,
		MD5Sum:    "abc",
		Size:      100,
		CreatedAt: createdAt,
	}}
	require.NoError(t, s.CreateRom(context.Background(), r))
	return r
}

func addIncremental(t *testing.T, s store.MetadataStore, filename, device, from, to string, createdAt time.Time) *models.Incremental {
	t.Helper()
	i := &models.Incremental{
		Artifact: models.Artifact{
			Filename:  filename,
			Device:    device,
			Version:   to,
			RomType:   "nightly",
			MD5Sum:    "def",
			Size:      10,
			CreatedAt: createdAt,
		},
		FromVersion: from,
		ToVersion:   to,
	}
	require.NoError(t, s.CreateIncremental(context.Background(), i))
	return i
}

type fakeSource struct {
	changes []gerrit.Change
	err     error
	calls   int
	last    gerrit.Query
}

func (f *fakeSource) Changes(ctx context.Context, q gerrit.Query) ([]gerrit.Change, error) {
	f.calls++
	f.last = q
	return f.changes, f.err
}

var errUpstream = errors.New("connection refused")
