package updater

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/mwantia/updater/internal/errors"
	"github.com/mwantia/updater/internal/gerrit"
)

func TestChangesMergesCurrentVersion(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	addRom(t, s, "a.zip", "bacon", "20.0", "nightly", now.Add(-3*time.Hour))
	addRom(t, s, "b.zip", "bacon", "21.0", "nightly", now.Add(-time.Hour))

	source := &fakeSource{changes: []gerrit.Change{
		{Number: 2, Subject: "newer", Submitted: 200},
		{Number: 1, Subject: "older", Submitted: 100},
	}}
	feed, err := NewChangelog(s, source, "https://status/{}", time.Second).Changes(context.Background(), "bacon", 500)
	require.NoError(t, err)

	require.NotNil(t, feed.CurrentVersion)
	assert.Equal(t, "21.0", *feed.CurrentVersion)
	assert.Equal(t, "https://status/{}", feed.StatusURL)
	assert.Equal(t, int64(100), feed.Last)
	assert.Equal(t, "newer", feed.Changes[0].Subject)
	assert.Equal(t, gerrit.Query{Device: "bacon", Before: 500}, source.last)
}

func TestChangesAllDevices(t *testing.T) {
	s := newTestStore(t)
	source := &fakeSource{}

	feed, err := NewChangelog(s, source, "", time.Second).Changes(context.Background(), "", -1)
	require.NoError(t, err)
	assert.Nil(t, feed.CurrentVersion)
	assert.Equal(t, "#", feed.StatusURL)
	assert.Equal(t, int64(-1), feed.Last)
	assert.NotNil(t, feed.Changes)
	assert.Empty(t, feed.Changes)
}

func TestChangesUpstreamUnavailable(t *testing.T) {
	s := newTestStore(t)

	_, err := NewChangelog(s, &fakeSource{err: errUpstream}, "", time.Second).Changes(context.Background(), "", -1)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrUpstreamUnavailable))
	assert.ErrorIs(t, err, errUpstream)
}
