package updater

import (
	"context"
	"sort"
	"time"

	"github.com/mwantia/updater/pkg/db/models"
	"github.com/mwantia/updater/pkg/db/store"
)

// NightlyType is always offered as a build type, even without builds.
const NightlyType = "nightly"

type Catalog struct {
	store      store.MetadataStore
	syncWindow time.Duration
	now        func() time.Time
}

func NewCatalog(s store.MetadataStore, syncWindow time.Duration, now func() time.Time) *Catalog {
	if now == nil {
		now = time.Now
	}
	return &Catalog{store: s, syncWindow: syncWindow, now: now}
}

// Types returns the build types known across all full builds plus
// NightlyType. The device argument does not narrow the result.
func (c *Catalog) Types(ctx context.Context, device string) ([]string, error) {
	recorded, err := c.store.ListRomTypes(ctx)
	if err != nil {
		return nil, err
	}

	types := []string{NightlyType}
	for _, t := range recorded {
		if t != NightlyType {
			types = append(types, t)
		}
	}
	sort.Strings(types)
	return types, nil
}

// Devices returns the catalog devices that have at least one published
// build, sorted by display name.
func (c *Catalog) Devices(ctx context.Context) ([]models.Device, error) {
	catalog, err := c.store.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	withBuilds, err := c.store.ListBuildDevices(ctx)
	if err != nil {
		return nil, err
	}

	published := make(map[string]struct{}, len(withBuilds))
	for _, model := range withBuilds {
		published[model] = struct{}{}
	}

	devices := make([]models.Device, 0, len(catalog))
	for _, d := range catalog {
		if _, ok := published[d.Model]; ok {
			devices = append(devices, d)
		}
	}
	sort.SliceStable(devices, func(i, j int) bool {
		if devices[i].Name == devices[j].Name {
			return devices[i].Model < devices[j].Model
		}
		return devices[i].Name < devices[j].Name
	})
	return devices, nil
}

// OEMs returns the distinct, sorted OEMs of devices.
func OEMs(devices []models.Device) []string {
	seen := make(map[string]struct{})
	oems := make([]string, 0)
	for _, d := range devices {
		if _, ok := seen[d.OEM]; ok {
			continue
		}
		seen[d.OEM] = struct{}{}
		oems = append(oems, d.OEM)
	}
	sort.Strings(oems)
	return oems
}

// DeviceBuilds lists the visible full builds of a device, newest first.
func (c *Catalog) DeviceBuilds(ctx context.Context, device string) ([]models.Rom, error) {
	filter := store.BuildFilter{Device: device}
	if c.syncWindow > 0 {
		filter.OlderThan = c.now().Add(-c.syncWindow)
	}

	roms, err := c.store.FindRoms(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(roms)-1; i < j; i, j = i+1, j-1 {
		roms[i], roms[j] = roms[j], roms[i]
	}
	return roms, nil
}

// VersionDevices maps each full build version to the devices that have it.
func (c *Catalog) VersionDevices(ctx context.Context) (map[string][]string, error) {
	return c.store.RomDevicesByVersion(ctx)
}
