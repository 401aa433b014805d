package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperr "github.com/mwantia/updater/internal/errors"
	"github.com/mwantia/updater/pkg/db/migrations"
	"github.com/mwantia/updater/pkg/db/models"
)

// gormStore implements every MetadataStore query; the driver specific
// stores only differ in how they open and tune the connection.
type gormStore struct {
	db *gorm.DB
}

// DB returns the underlying GORM database instance
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// Close closes the database connection
func (s *gormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

// Migrate applies all pending versioned migrations
func (s *gormStore) Migrate(ctx context.Context) error {
	return migrations.NewMigrator(s.db).Migrate(ctx)
}

// Init migrates the schema when the store is resolved from a service
// container; Cleanup closes the connection on container shutdown.
func (s *gormStore) Init(ctx context.Context) error {
	return s.Migrate(ctx)
}

func (s *gormStore) Cleanup(ctx context.Context) error {
	return s.Close()
}

// Health checks database connectivity
func (s *gormStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Artifact operations, shared by both kinds

func createBuild[T models.Build](ctx context.Context, db *gorm.DB, build *T) error {
	if err := db.WithContext(ctx).Create(build).Error; err != nil {
		if apperr.Is(err, apperr.ErrValidation) {
			return err
		}
		return apperr.Wrap(apperr.ErrDatabase, fmt.Sprintf("failed to create %s", (*build).Kind()), err)
	}
	return nil
}

func findBuilds[T models.Build](ctx context.Context, db *gorm.DB, filter BuildFilter, scopes ...func(*gorm.DB) *gorm.DB) ([]T, error) {
	var builds []T
	query := db.WithContext(ctx).Model(new(T))

	if filter.Device != "" {
		query = query.Where("device = ?", filter.Device)
	}
	if filter.RomType != "" {
		query = query.Where("rom_type = ?", filter.RomType)
	}
	if !filter.OlderThan.IsZero() {
		query = query.Where("created_at < ?", filter.OlderThan.UTC())
	}
	if len(scopes) > 0 {
		query = query.Scopes(scopes...)
	}

	if err := query.Order("created_at ASC, id ASC").Find(&builds).Error; err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "failed to query builds", err)
	}
	return builds, nil
}

func deleteBuilds[T models.Build](ctx context.Context, db *gorm.DB, filename string) (int64, error) {
	result := db.WithContext(ctx).Where("filename = ?", filename).Delete(new(T))
	if result.Error != nil {
		return 0, apperr.Wrap(apperr.ErrDatabase, "failed to delete builds", result.Error)
	}
	return result.RowsAffected, nil
}

func buildDevices[T models.Build](ctx context.Context, db *gorm.DB) ([]string, error) {
	var devices []string
	if err := db.WithContext(ctx).Model(new(T)).Distinct().Pluck("device", &devices).Error; err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "failed to list build devices", err)
	}
	return devices, nil
}

// Full build operations

func (s *gormStore) CreateRom(ctx context.Context, rom *models.Rom) error {
	return createBuild(ctx, s.db, rom)
}

func (s *gormStore) GetRom(ctx context.Context, id string) (*models.Rom, error) {
	var rom models.Rom
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rom).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.ErrNotFound, fmt.Sprintf("rom %q not found", id))
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "failed to get rom", err)
	}
	return &rom, nil
}

func (s *gormStore) ListRoms(ctx context.Context) ([]models.Rom, error) {
	return findBuilds[models.Rom](ctx, s.db, BuildFilter{})
}

func (s *gormStore) FindRoms(ctx context.Context, filter BuildFilter) ([]models.Rom, error) {
	return findBuilds[models.Rom](ctx, s.db, filter)
}

func (s *gormStore) DeleteRoms(ctx context.Context, filename string) (int64, error) {
	return deleteBuilds[models.Rom](ctx, s.db, filename)
}

// Incremental operations

func (s *gormStore) CreateIncremental(ctx context.Context, inc *models.Incremental) error {
	return createBuild(ctx, s.db, inc)
}

func (s *gormStore) FindIncrementals(ctx context.Context, filter BuildFilter, fromVersion string) ([]models.Incremental, error) {
	return findBuilds[models.Incremental](ctx, s.db, filter, func(db *gorm.DB) *gorm.DB {
		return db.Where("from_version = ?", fromVersion)
	})
}

func (s *gormStore) DeleteIncrementals(ctx context.Context, filename string) (int64, error) {
	return deleteBuilds[models.Incremental](ctx, s.db, filename)
}

// Aggregates

// ListRomTypes returns every distinct build type across all full builds.
func (s *gormStore) ListRomTypes(ctx context.Context) ([]string, error) {
	var types []string
	if err := s.db.WithContext(ctx).Model(&models.Rom{}).Distinct().Pluck("rom_type", &types).Error; err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "failed to list rom types", err)
	}
	sort.Strings(types)
	return types, nil
}

// ListBuildDevices returns the union of devices that have a full or an
// incremental build, sorted.
func (s *gormStore) ListBuildDevices(ctx context.Context) ([]string, error) {
	roms, err := buildDevices[models.Rom](ctx, s.db)
	if err != nil {
		return nil, err
	}
	incs, err := buildDevices[models.Incremental](ctx, s.db)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(roms)+len(incs))
	devices := make([]string, 0, len(roms)+len(incs))
	for _, device := range append(roms, incs...) {
		if _, ok := seen[device]; ok {
			continue
		}
		seen[device] = struct{}{}
		devices = append(devices, device)
	}
	sort.Strings(devices)
	return devices, nil
}

// CurrentRomVersion returns the version of the newest full build of device,
// ordered by created_at then id, or "" when the device has none.
func (s *gormStore) CurrentRomVersion(ctx context.Context, device string) (string, error) {
	var roms []models.Rom
	err := s.db.WithContext(ctx).
		Where("device = ?", device).
		Order("created_at DESC, id DESC").
		Limit(1).
		Find(&roms).Error
	if err != nil {
		return "", apperr.Wrap(apperr.ErrDatabase, "failed to get device version", err)
	}
	if len(roms) == 0 {
		return "", nil
	}
	return roms[0].Version, nil
}

// RomDevicesByVersion groups the distinct devices of all full builds by
// version.
func (s *gormStore) RomDevicesByVersion(ctx context.Context) (map[string][]string, error) {
	var pairs []struct {
		Version string
		Device  string
	}
	err := s.db.WithContext(ctx).
		Model(&models.Rom{}).
		Distinct("version", "device").
		Order("version ASC, device ASC").
		Scan(&pairs).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "failed to group devices by version", err)
	}

	versions := make(map[string][]string)
	for _, p := range pairs {
		versions[p.Version] = append(versions[p.Version], p.Device)
	}
	return versions, nil
}

// Device catalog operations

func (s *gormStore) UpsertDevice(ctx context.Context, device *models.Device) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "model"}},
			DoUpdates: clause.AssignmentColumns([]string{"oem", "name", "has_recovery", "updated_at"}),
		}).
		Create(device).Error
	if err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "failed to upsert device", err)
	}
	return nil
}

func (s *gormStore) GetDevice(ctx context.Context, model string) (*models.Device, error) {
	var device models.Device
	err := s.db.WithContext(ctx).Where("model = ?", model).First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.ErrNotFound, fmt.Sprintf("device %q not found", model))
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "failed to get device", err)
	}
	return &device, nil
}

func (s *gormStore) ListDevices(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device
	if err := s.db.WithContext(ctx).Order("model ASC").Find(&devices).Error; err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "failed to list devices", err)
	}
	return devices, nil
}

func (s *gormStore) DeleteDevice(ctx context.Context, model string) error {
	if err := s.db.WithContext(ctx).Delete(&models.Device{}, "model = ?", model).Error; err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "failed to delete device", err)
	}
	return nil
}

// API key operations

func (s *gormStore) CreateApiKey(ctx context.Context, key *models.ApiKey) error {
	if key.Key == "" {
		return apperr.New(apperr.ErrValidation, "api key must not be empty")
	}
	if err := s.db.WithContext(ctx).Create(key).Error; err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "failed to create api key", err)
	}
	return nil
}

func (s *gormStore) ListApiKeys(ctx context.Context) ([]models.ApiKey, error) {
	var keys []models.ApiKey
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&keys).Error; err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "failed to list api keys", err)
	}
	return keys, nil
}

func (s *gormStore) DeleteApiKey(ctx context.Context, key string) (int64, error) {
	result := s.db.WithContext(ctx).Where("apikey = ?", key).Delete(&models.ApiKey{})
	if result.Error != nil {
		return 0, apperr.Wrap(apperr.ErrDatabase, "failed to delete api key", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *gormStore) ApiKeyExists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.ApiKey{}).Where("apikey = ?", key).Count(&count).Error; err != nil {
		return false, apperr.Wrap(apperr.ErrDatabase, "failed to check api key", err)
	}
	return count > 0, nil
}
