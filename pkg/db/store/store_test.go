package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/mwantia/updater/internal/errors"
	"github.com/mwantia/updater/pkg/db/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()

	s, err := NewSQLiteStore(SQLiteConfig{Path: filepath.Join(t.TempDir(), "updater.db")})
	require.NoError(t, err)
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() { s.Close() })
	return s
}

func rom(filename, device, version, romType string, createdAt time.Time) *models.Rom {
	return &models.Rom{Artifact: models.Artifact{
		Filename:  filename,
		Device:    device,
		Version:   version,
		RomType:   romType,
		MD5Sum:    "abc",
		CreatedAt: createdAt,
	}}
}

func incremental(filename, device, from, to string, createdAt time.Time) *models.Incremental {
	return &models.Incremental{
		Artifact: models.Artifact{
			Filename:  filename,
			Device:    device,
			Version:   to,
			RomType:   "nightly",
			MD5Sum:    "def",
			CreatedAt: createdAt,
		},
		FromVersion: from,
		ToVersion:   to,
	}
}

func TestCreateRomValidation(t *testing.T) {
	s := newTestStore(t)
	err := s.CreateRom(context.Background(), &models.Rom{Artifact: models.Artifact{Filename: "a.zip"}})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrValidation))

	roms, err := s.ListRoms(context.Background())
	require.NoError(t, err)
	assert.Empty(t, roms)
}

func TestCreateRomDefaultsTimestamp(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	r := rom("a.zip", "x", "1.0", "nightly", time.Time{})
	require.NoError(t, s.CreateRom(ctx, r))

	got, err := s.GetRom(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.zip", got.Filename)
	assert.WithinDuration(t, time.Now().Add(-time.Hour), got.CreatedAt, time.Minute)
}

func TestGetRomNotFound(t *testing.T) {
	_, err := newTestStore(t).GetRom(context.Background(), "missing")
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
}

func TestFindRomsFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()

	require.NoError(t, s.CreateRom(ctx, rom("new.zip", "x", "1.2", "nightly", now.Add(-time.Minute))))
	require.NoError(t, s.CreateRom(ctx, rom("old.zip", "x", "1.0", "nightly", now.Add(-3*time.Hour))))
	require.NoError(t, s.CreateRom(ctx, rom("mid.zip", "x", "1.1", "stable", now.Add(-2*time.Hour))))
	require.NoError(t, s.CreateRom(ctx, rom("other.zip", "y", "1.0", "nightly", now.Add(-2*time.Hour))))

	all, err := s.FindRoms(ctx, BuildFilter{Device: "x"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"old.zip", "mid.zip", "new.zip"}, filenames(all))

	nightly, err := s.FindRoms(ctx, BuildFilter{Device: "x", RomType: "nightly"})
	require.NoError(t, err)
	assert.Equal(t, []string{"old.zip", "new.zip"}, filenames(nightly))

	aged, err := s.FindRoms(ctx, BuildFilter{Device: "x", OlderThan: now.Add(-time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, []string{"old.zip", "mid.zip"}, filenames(aged))
}

func TestFindIncrementalsByFromVersion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()

	require.NoError(t, s.CreateIncremental(ctx, incremental("a.zip", "x", "1.0", "1.1", now.Add(-2*time.Hour))))
	require.NoError(t, s.CreateIncremental(ctx, incremental("b.zip", "x", "2.0", "2.1", now.Add(-2*time.Hour))))

	incs, err := s.FindIncrementals(ctx, BuildFilter{Device: "x"}, "1.0")
	require.NoError(t, err)
	require.Len(t, incs, 1)
	assert.Equal(t, "a.zip", incs[0].Filename)
	assert.Equal(t, "1.1", incs[0].ToVersion)
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateRom(ctx, rom("a.zip", "x", "1.0", "nightly", time.Time{})))
	require.NoError(t, s.CreateRom(ctx, rom("a.zip", "y", "1.0", "nightly", time.Time{})))

	n, err := s.DeleteRoms(ctx, "a.zip")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = s.DeleteRoms(ctx, "a.zip")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.DeleteIncrementals(ctx, "nothing.zip")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAggregates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()

	require.NoError(t, s.CreateRom(ctx, rom("x1.zip", "x", "1.0", "nightly", now.Add(-3*time.Hour))))
	require.NoError(t, s.CreateRom(ctx, rom("x2.zip", "x", "2.0", "stable", now.Add(-time.Hour))))
	require.NoError(t, s.CreateRom(ctx, rom("y1.zip", "y", "1.0", "nightly", now.Add(-time.Hour))))
	require.NoError(t, s.CreateIncremental(ctx, incremental("z.zip", "z", "1.0", "2.0", now)))

	types, err := s.ListRomTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"nightly", "stable"}, types)

	devices, err := s.ListBuildDevices(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, devices)

	version, err := s.CurrentRomVersion(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "2.0", version)

	version, err = s.CurrentRomVersion(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, version)

	byVersion, err := s.RomDevicesByVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"1.0": {"x", "y"}, "2.0": {"x"}}, byVersion)
}

func TestUpsertDevice(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.UpsertDevice(ctx, &models.Device{Model: "bacon", OEM: "OnePlus", Name: "One", HasRecovery: true}))
	require.NoError(t, s.UpsertDevice(ctx, &models.Device{Model: "bacon", OEM: "OnePlus", Name: "One (2014)", HasRecovery: false}))

	devices, err := s.ListDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "One (2014)", devices[0].Name)
	assert.False(t, devices[0].HasRecovery)

	require.NoError(t, s.DeleteDevice(ctx, "bacon"))
	_, err = s.GetDevice(ctx, "bacon")
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
}

func TestApiKeys(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateApiKey(ctx, &models.ApiKey{Key: "secret", Comment: "ci"}))

	ok, err := s.ApiKeyExists(ctx, "secret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ApiKeyExists(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)

	keys, err := s.ListApiKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "ci", keys[0].Comment)

	n, err := s.DeleteApiKey(ctx, "secret")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	ok, err = s.ApiKeyExists(ctx, "secret")
	require.NoError(t, err)
	assert.False(t, ok)
}

func filenames(roms []models.Rom) []string {
	out := make([]string, 0, len(roms))
	for _, r := range roms {
		out = append(out, r.Filename)
	}
	return out
}
