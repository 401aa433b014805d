package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	apperr "github.com/mwantia/updater/internal/errors"
	"github.com/mwantia/updater/pkg/db/models"
	"github.com/mwantia/updater/pkg/db/store"
)

// deviceRecord is one entry of a devices feed. Unknown keys are ignored.
type deviceRecord struct {
	Model       string `json:"model"`
	OEM         string `json:"oem"`
	Name        string `json:"name"`
	HasRecovery *bool  `json:"has_recovery"`
}

// ParseDevices reads a JSON array of catalog devices. Devices without
// has_recovery default to having one.
func ParseDevices(r io.Reader) ([]models.Device, error) {
	var records []deviceRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, apperr.Wrap(apperr.ErrValidation, "malformed devices feed", err)
	}

	devices := make([]models.Device, 0, len(records))
	for i, rec := range records {
		if rec.Model == "" || rec.OEM == "" || rec.Name == "" {
			return nil, apperr.New(apperr.ErrValidation, fmt.Sprintf("device #%d requires model, oem and name", i))
		}
		hasRecovery := true
		if rec.HasRecovery != nil {
			hasRecovery = *rec.HasRecovery
		}
		devices = append(devices, models.Device{
			Model:       rec.Model,
			OEM:         rec.OEM,
			Name:        rec.Name,
			HasRecovery: hasRecovery,
		})
	}
	return devices, nil
}

// ImportDevices upserts every device of the feed by model and returns the
// number of devices written. Later feeds override earlier ones.
func ImportDevices(ctx context.Context, s store.MetadataStore, r io.Reader) (int, error) {
	devices, err := ParseDevices(r)
	if err != nil {
		return 0, err
	}
	for i := range devices {
		if err := s.UpsertDevice(ctx, &devices[i]); err != nil {
			return i, err
		}
	}
	return len(devices), nil
}
