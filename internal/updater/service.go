// Package updater selects builds for update clients, lists the device
// catalog and assembles the changelog feed. Results are cached with a fixed
// TTL and only invalidated as a whole.
package updater

import (
	"context"
	"fmt"
	"time"

	"github.com/mwantia/updater/internal/cache"
	apperr "github.com/mwantia/updater/internal/errors"
	"github.com/mwantia/updater/internal/metrics"
	"github.com/mwantia/updater/pkg/db/models"
	"github.com/mwantia/updater/pkg/db/store"
	"github.com/mwantia/updater/pkg/log"
)

// Options configures a Service. The tagged dependencies can be filled by a
// fabric container; the remaining fields come from configuration.
type Options struct {
	Store   store.MetadataStore `fabric:"inject"`
	Source  ChangeSource        `fabric:"inject"`
	Cache   cache.Cache         `fabric:"inject"`
	Metrics *metrics.Metrics    `fabric:"inject"`
	Logger  log.LoggerService   `fabric:"logger:updater"`

	SyncWindow      time.Duration
	BaseURL         string
	StatusURL       string
	UpstreamTimeout time.Duration
	Now             func() time.Time
}

type Service struct {
	store      store.MetadataStore
	cache      cache.Cache
	metrics    *metrics.Metrics
	log        log.LoggerService
	syncWindow time.Duration
	baseURL    string

	selector  *Selector
	catalog   *Catalog
	changelog *Changelog
}

// DeviceIndex is the navigation data shared by every web page.
type DeviceIndex struct {
	Devices []models.Device
	OEMs    []string
}

// FileLink is the download location of a single full build.
type FileLink struct {
	URL    string `json:"url"`
	MD5Sum string `json:"md5sum"`
}

func NewService(opts Options) *Service {
	if opts.Cache == nil {
		opts.Cache = cache.New(0, time.Hour)
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.SyncWindow < 0 {
		opts.SyncWindow = 0
	}

	return &Service{
		store:      opts.Store,
		cache:      opts.Cache,
		metrics:    opts.Metrics,
		log:        opts.Logger,
		syncWindow: opts.SyncWindow,
		baseURL:    opts.BaseURL,
		selector:   NewSelector(opts.Store, opts.BaseURL, opts.Now),
		catalog:    NewCatalog(opts.Store, opts.SyncWindow, opts.Now),
		changelog:  NewChangelog(opts.Store, opts.Source, opts.StatusURL, opts.UpstreamTimeout),
	}
}

func load[T any](s *Service, key string, fn func() (T, error)) (T, error) {
	value, hit, err := cache.Load(s.cache, key, fn)
	s.metrics.CacheResult(hit)
	return value, err
}

// Builds answers an update check using the configured sync window.
func (s *Service) Builds(ctx context.Context, q SelectQuery) ([]BuildEntry, error) {
	q.SyncWindow = s.syncWindow

	after := "-"
	if q.After != nil {
		after = fmt.Sprint(*q.After)
	}
	key := fmt.Sprintf("builds:%q:%q:%s:%q:%q", q.Device, q.RomType, after, q.Version, q.IncrementalVersion)

	return load(s, key, func() ([]BuildEntry, error) {
		return s.selector.Select(ctx, q)
	})
}

func (s *Service) Types(ctx context.Context, device string) ([]string, error) {
	return load(s, fmt.Sprintf("types:%q", device), func() ([]string, error) {
		return s.catalog.Types(ctx, device)
	})
}

func (s *Service) DeviceIndex(ctx context.Context) (DeviceIndex, error) {
	return load(s, "devices", func() (DeviceIndex, error) {
		devices, err := s.catalog.Devices(ctx)
		if err != nil {
			return DeviceIndex{}, err
		}
		return DeviceIndex{Devices: devices, OEMs: OEMs(devices)}, nil
	})
}

func (s *Service) DeviceBuilds(ctx context.Context, device string) ([]models.Rom, error) {
	return load(s, fmt.Sprintf("device-builds:%q", device), func() ([]models.Rom, error) {
		return s.catalog.DeviceBuilds(ctx, device)
	})
}

func (s *Service) VersionDevices(ctx context.Context) (map[string][]string, error) {
	return load(s, "version-devices", func() (map[string][]string, error) {
		return s.catalog.VersionDevices(ctx)
	})
}

// Changes returns a changelog page; device "" means all devices.
func (s *Service) Changes(ctx context.Context, device string, before int64) (*ChangeFeed, error) {
	feed, err := load(s, fmt.Sprintf("changes:%q:%d", device, before), func() (*ChangeFeed, error) {
		return s.changelog.Changes(ctx, device, before)
	})
	if err != nil && apperr.Is(err, apperr.ErrUpstreamUnavailable) {
		s.metrics.UpstreamFailure()
		s.log.Error("Change history unavailable: %v", err)
	}
	return feed, err
}

// RequestFile resolves the download link of a full build by id.
func (s *Service) RequestFile(ctx context.Context, id string) (FileLink, error) {
	rom, err := s.store.GetRom(ctx, id)
	if err != nil {
		return FileLink{}, err
	}
	return FileLink{URL: DownloadURL(s.baseURL, rom.Artifact), MD5Sum: rom.MD5Sum}, nil
}

// PurgeCache drops every cached result.
func (s *Service) PurgeCache() {
	s.cache.Clear()
	s.metrics.Purge()
	s.log.Info("Cache purged")
}

func (s *Service) AddRom(ctx context.Context, rom *models.Rom) error {
	if err := s.store.CreateRom(ctx, rom); err != nil {
		return err
	}
	s.log.Info("Added rom '%s' for device '%s' (%s)", rom.Filename, rom.Device, rom.Version)
	return nil
}

func (s *Service) AddIncremental(ctx context.Context, inc *models.Incremental) error {
	if err := s.store.CreateIncremental(ctx, inc); err != nil {
		return err
	}
	s.log.Info("Added incremental '%s' for device '%s' (%s -> %s)", inc.Filename, inc.Device, inc.FromVersion, inc.ToVersion)
	return nil
}

func (s *Service) DeleteRoms(ctx context.Context, filename string) error {
	n, err := s.store.DeleteRoms(ctx, filename)
	if err != nil {
		return err
	}
	s.log.Info("Deleted %d rom(s) named '%s'", n, filename)
	return nil
}

func (s *Service) DeleteIncrementals(ctx context.Context, filename string) error {
	n, err := s.store.DeleteIncrementals(ctx, filename)
	if err != nil {
		return err
	}
	s.log.Info("Deleted %d incremental(s) named '%s'", n, filename)
	return nil
}

// Authorize checks key against the stored api keys.
func (s *Service) Authorize(ctx context.Context, key string) error {
	ok, err := s.store.ApiKeyExists(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.New(apperr.ErrAuth, "invalid api key")
	}
	return nil
}

func (s *Service) Health(ctx context.Context) error {
	return s.store.Health(ctx)
}

// Device returns the catalog entry for model, or nil when it is not listed.
func (s *Service) Device(ctx context.Context, model string) (*models.Device, error) {
	device, err := s.store.GetDevice(ctx, model)
	if apperr.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	return device, err
}

// DownloadURL resolves the link of a using the configured base url.
func (s *Service) DownloadURL(a models.Artifact) string {
	return DownloadURL(s.baseURL, a)
}
