package updater

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mwantia/updater/pkg/db/models"
	"github.com/mwantia/updater/pkg/db/store"
)

// Doer sends HTTP requests; *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// MissingBuilds issues a HEAD request for the download link of every full
// build and returns the builds whose link answers 404. Transport errors
// abort the check.
func MissingBuilds(ctx context.Context, s store.MetadataStore, client Doer, baseURL string) ([]models.Rom, error) {
	roms, err := s.ListRoms(ctx)
	if err != nil {
		return nil, err
	}

	missing := make([]models.Rom, 0)
	for _, rom := range roms {
		url := DownloadURL(baseURL, rom.Artifact)
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return nil, fmt.Errorf("invalid url '%s' of '%s': %w", url, rom.Filename, err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to check '%s': %w", rom.Filename, err)
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			missing = append(missing, rom)
		}
	}
	return missing, nil
}
