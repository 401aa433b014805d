package store

import (
	"context"
	"time"

	"github.com/mwantia/updater/pkg/db/models"
)

// BuildFilter narrows artifact queries. Zero values disable a condition.
type BuildFilter struct {
	Device  string
	RomType string
	// OlderThan keeps artifacts created strictly before this instant.
	OlderThan time.Time
}

// MetadataStore defines the interface for database operations
type MetadataStore interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	Health(ctx context.Context) error

	// Full build operations
	CreateRom(ctx context.Context, rom *models.Rom) error
	GetRom(ctx context.Context, id string) (*models.Rom, error)
	ListRoms(ctx context.Context) ([]models.Rom, error)
	FindRoms(ctx context.Context, filter BuildFilter) ([]models.Rom, error)
	DeleteRoms(ctx context.Context, filename string) (int64, error)

	// Incremental operations
	CreateIncremental(ctx context.Context, inc *models.Incremental) error
	FindIncrementals(ctx context.Context, filter BuildFilter, fromVersion string) ([]models.Incremental, error)
	DeleteIncrementals(ctx context.Context, filename string) (int64, error)

	// Aggregates
	ListRomTypes(ctx context.Context) ([]string, error)
	ListBuildDevices(ctx context.Context) ([]string, error)
	CurrentRomVersion(ctx context.Context, device string) (string, error)
	RomDevicesByVersion(ctx context.Context) (map[string][]string, error)

	// Device catalog operations
	UpsertDevice(ctx context.Context, device *models.Device) error
	GetDevice(ctx context.Context, model string) (*models.Device, error)
	ListDevices(ctx context.Context) ([]models.Device, error)
	DeleteDevice(ctx context.Context, model string) error

	// API key operations
	CreateApiKey(ctx context.Context, key *models.ApiKey) error
	ListApiKeys(ctx context.Context) ([]models.ApiKey, error)
	DeleteApiKey(ctx context.Context, key string) (int64, error)
	ApiKeyExists(ctx context.Context, key string) (bool, error)
}
