package updater

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingBuilds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		if r.URL.Path == "/gone.zip" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := newTestStore(t)
	now := time.Now()
	addRom(t, s, "present.zip", "bacon", "14.1", "nightly", now)
	addRom(t, s, "gone.zip", "bacon", "14.1", "nightly", now)

	missing, err := MissingBuilds(context.Background(), s, srv.Client(), srv.URL)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "gone.zip", missing[0].Filename)
}

func TestMissingBuildsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s := newTestStore(t)
	addRom(t, s, "a.zip", "bacon", "14.1", "nightly", time.Now())

	_, err := MissingBuilds(context.Background(), s, http.DefaultClient, url)
	assert.Error(t, err)
}
