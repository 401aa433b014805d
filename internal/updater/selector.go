package updater

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/mwantia/updater/pkg/db/models"
	"github.com/mwantia/updater/pkg/db/store"
)

// SelectQuery describes an update check from a device.
type SelectQuery struct {
	Device  string
	RomType string
	// After keeps builds created strictly after this unix timestamp.
	After *int64
	// Version keeps builds with exactly this version.
	Version string
	// IncrementalVersion is the version the client currently runs; only
	// incrementals patching from it are offered.
	IncrementalVersion string
	// SyncWindow hides builds younger than this. Zero shows everything.
	SyncWindow time.Duration
}

// BuildEntry is the client facing projection of a full or incremental build.
type BuildEntry struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	RomType      string `json:"romtype"`
	Datetime     int64  `json:"datetime"`
	Version      string `json:"version"`
	Size         int64  `json:"size"`
	HasBootImage bool   `json:"hasbootimg"`
	Sticky       bool   `json:"sticky"`
	Filename     string `json:"filename"`
}

type Selector struct {
	store   store.MetadataStore
	baseURL string
	now     func() time.Time
}

func NewSelector(s store.MetadataStore, baseURL string, now func() time.Time) *Selector {
	if now == nil {
		now = time.Now
	}
	return &Selector{store: s, baseURL: baseURL, now: now}
}

// Select returns the incrementals that patch from q.IncrementalVersion, or,
// when there are none, the full builds. The two sets are never mixed. An
// unknown device or type yields an empty slice.
func (s *Selector) Select(ctx context.Context, q SelectQuery) ([]BuildEntry, error) {
	filter := store.BuildFilter{
		Device:  q.Device,
		RomType: q.RomType,
	}
	if q.SyncWindow > 0 {
		filter.OlderThan = s.now().Add(-q.SyncWindow)
	}

	incs, err := s.store.FindIncrementals(ctx, filter, q.IncrementalVersion)
	if err != nil {
		return nil, err
	}
	if len(incs) > 0 {
		return toEntries(narrow(incs, q), s.baseURL), nil
	}

	roms, err := s.store.FindRoms(ctx, filter)
	if err != nil {
		return nil, err
	}
	return toEntries(narrow(roms, q), s.baseURL), nil
}

// narrow applies the after and version filters and orders by creation time.
func narrow[T models.Build](builds []T, q SelectQuery) []T {
	out := make([]T, 0, len(builds))
	for _, b := range builds {
		a := b.Base()
		if q.After != nil && a.CreatedAt.Unix() <= *q.After {
			continue
		}
		if q.Version != "" && a.Version != q.Version {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Base().CreatedAt.Before(out[j].Base().CreatedAt)
	})
	return out
}

func toEntries[T models.Build](builds []T, baseURL string) []BuildEntry {
	entries := make([]BuildEntry, 0, len(builds))
	for _, b := range builds {
		a := b.Base()
		entry := BuildEntry{
			ID:       a.ID,
			URL:      DownloadURL(baseURL, a),
			RomType:  a.RomType,
			Datetime: a.CreatedAt.Unix(),
			Version:  a.Version,
			Size:     a.Size,
			Filename: a.Filename,
		}
		if rom, ok := any(b).(models.Rom); ok {
			entry.HasBootImage = rom.HasBootImage
			entry.Sticky = rom.Sticky
		}
		entries = append(entries, entry)
	}
	return entries
}

// DownloadURL returns the stored url of a, or baseURL joined with its
// filename when none was stored.
func DownloadURL(baseURL string, a models.Artifact) string {
	if a.URL != "" {
		return a.URL
	}
	if baseURL == "" {
		return a.Filename
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return baseURL + a.Filename
}
