package admin

import (
	"context"
	"fmt"
	"strconv"
	"time"

	config "github.com/mwantia/updater/internal/config/server"
	"github.com/mwantia/updater/pkg/db/store"
	"github.com/mwantia/updater/pkg/log"
)

// session is the state shared by admin commands: configuration, a logger
// and a connected, migrated metadata store.
type session struct {
	cfg   *config.BaseServerConfig
	log   log.LoggerService
	store store.MetadataStore
}

func openSession(ctx context.Context, migrate bool) (*session, error) {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load server configuration: %w", err)
	}

	s, err := store.Open(ctx, cfg.Metadata)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to migrate metadata store: %w", err)
		}
	}

	return &session{
		cfg:   cfg,
		log:   log.NewLoggerService("admin", cfg.Log),
		store: s,
	}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// parseTimestamp accepts unix seconds, RFC 3339 or "YYYY-MM-DD HH:MM:SS"
// (UTC). An empty value yields the zero time.
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	for _, layout := range []string{time.RFC3339, time.DateTime, time.DateOnly} {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp '%s'", value)
}
