package updater

import (
	"context"
	"time"

	apperr "github.com/mwantia/updater/internal/errors"
	"github.com/mwantia/updater/internal/gerrit"
	"github.com/mwantia/updater/pkg/db/store"
)

// ChangeSource lists merged changes, newest first.
type ChangeSource interface {
	Changes(ctx context.Context, q gerrit.Query) ([]gerrit.Change, error)
}

// ChangeFeed is one page of the changelog.
type ChangeFeed struct {
	Changes []gerrit.Change `json:"res"`
	// Last is the submitted time of the oldest change on this page and the
	// marker for the next one, or -1 when the page is empty.
	Last           int64   `json:"last"`
	CurrentVersion *string `json:"current_version"`
	StatusURL      string  `json:"status_url"`
}

type Changelog struct {
	store     store.MetadataStore
	source    ChangeSource
	statusURL string
	timeout   time.Duration
}

func NewChangelog(s store.MetadataStore, source ChangeSource, statusURL string, timeout time.Duration) *Changelog {
	if statusURL == "" {
		statusURL = "#"
	}
	return &Changelog{store: s, source: source, statusURL: statusURL, timeout: timeout}
}

// Changes returns the change feed for device ("" for all devices) below the
// before marker (-1 for the first page). Upstream failures are returned as
// ErrUpstreamUnavailable and never as an empty feed.
func (c *Changelog) Changes(ctx context.Context, device string, before int64) (*ChangeFeed, error) {
	var current *string
	if device != "" {
		version, err := c.store.CurrentRomVersion(ctx, device)
		if err != nil {
			return nil, err
		}
		if version != "" {
			current = &version
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	changes, err := c.source.Changes(ctx, gerrit.Query{Device: device, Before: before})
	if err != nil {
		if apperr.Is(err, apperr.ErrUpstreamUnavailable) {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.ErrUpstreamUnavailable, "change history unavailable", err)
	}
	if changes == nil {
		changes = []gerrit.Change{}
	}

	last := int64(-1)
	if len(changes) > 0 {
		last = changes[len(changes)-1].Submitted
	}

	return &ChangeFeed{
		Changes:        changes,
		Last:           last,
		CurrentVersion: current,
		StatusURL:      c.statusURL,
	}, nil
}
