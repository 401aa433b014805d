package updater

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwantia/updater/internal/cache"
	apperr "github.com/mwantia/updater/internal/errors"
	"github.com/mwantia/updater/internal/gerrit"
	"github.com/mwantia/updater/internal/metrics"
	"github.com/mwantia/updater/pkg/db/models"
)

func TestServiceCachesUntilPurge(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := NewService(Options{Store: s, Cache: cache.New(64, time.Hour), Metrics: metrics.New()})

	addRom(t, s, "a.zip", "x", "1.0", "nightly", time.Time{})
	q := SelectQuery{Device: "x", RomType: "nightly"}

	entries, err := svc.Builds(ctx, q)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	addRom(t, s, "b.zip", "x", "1.1", "nightly", time.Time{})
	entries, err = svc.Builds(ctx, q)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "stale read expected until purge")

	svc.PurgeCache()
	entries, err = svc.Builds(ctx, q)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestServiceUsesSyncWindow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := NewService(Options{Store: s, SyncWindow: time.Hour})

	addRom(t, s, "fresh.zip", "x", "1.0", "nightly", time.Now().Add(-time.Minute))
	entries, err := svc.Builds(ctx, SelectQuery{Device: "x"})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestServiceDoesNotCacheUpstreamFailures(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	source := &fakeSource{err: errUpstream}
	svc := NewService(Options{Store: s, Source: source, UpstreamTimeout: time.Second})

	_, err := svc.Changes(ctx, "", -1)
	require.True(t, apperr.Is(err, apperr.ErrUpstreamUnavailable))

	source.err = nil
	source.changes = []gerrit.Change{{Number: 1, Submitted: 10}}
	feed, err := svc.Changes(ctx, "", -1)
	require.NoError(t, err)
	assert.Len(t, feed.Changes, 1)

	_, err = svc.Changes(ctx, "", -1)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestServiceRequestFile(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := NewService(Options{Store: s, BaseURL: "https://mirror.example"})

	r := addRom(t, s, "a.zip", "x", "1.0", "nightly", time.Time{})
	link, err := svc.RequestFile(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, FileLink{URL: "https://mirror.example/a.zip", MD5Sum: "abc"}, link)

	_, err = svc.RequestFile(ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
}

func TestServiceAuthorize(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := NewService(Options{Store: s})
	require.NoError(t, s.CreateApiKey(ctx, &models.ApiKey{Key: "k1"}))

	assert.NoError(t, svc.Authorize(ctx, "k1"))
	assert.True(t, apperr.Is(svc.Authorize(ctx, "k2"), apperr.ErrAuth))
	assert.True(t, apperr.Is(svc.Authorize(ctx, ""), apperr.ErrAuth))
}

func TestServiceDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := NewService(Options{Store: newTestStore(t)})

	assert.NoError(t, svc.DeleteRoms(ctx, "missing.zip"))
	assert.NoError(t, svc.DeleteIncrementals(ctx, "missing.zip"))
}
