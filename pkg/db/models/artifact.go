package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperr "github.com/mwantia/updater/internal/errors"
)

// Kind distinguishes the two artifact tables.
type Kind string

const (
	KindRom         Kind = "rom"
	KindIncremental Kind = "incremental"
)

// DefaultCreatedAtOffset backdates artifacts created without a timestamp;
// they stay hidden from clients until the sync window has passed.
const DefaultCreatedAtOffset = 60 * time.Minute

// Artifact holds the fields shared by full and incremental builds.
type Artifact struct {
	ID        string    `gorm:"primaryKey;type:text"`
	Filename  string    `gorm:"type:text;not null;index"`
	CreatedAt time.Time `gorm:"not null;index"`
	Device    string    `gorm:"type:text;not null;index"`
	Version   string    `gorm:"type:text;not null;index"`
	RomType   string    `gorm:"column:rom_type;type:text;not null"`
	MD5Sum    string    `gorm:"column:md5sum;type:text;not null"`
	URL       string    `gorm:"type:text"`
	Size      int64     `gorm:"not null;default:0"`
}

// Base returns a copy of the shared artifact fields.
func (a Artifact) Base() Artifact {
	return a
}

// Validate reports every required field that is empty.
func (a *Artifact) Validate() error {
	return validateRequired(map[string]string{
		"filename": a.Filename,
		"device":   a.Device,
		"version":  a.Version,
		"romtype":  a.RomType,
		"md5sum":   a.MD5Sum,
	}, a.Size)
}

func (a *Artifact) prepare() {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().Add(-DefaultCreatedAtOffset)
	}
	a.CreatedAt = a.CreatedAt.UTC()
}

// Rom is a full build image.
type Rom struct {
	Artifact

	HasBootImage bool `gorm:"column:has_boot_image;not null;default:false"`
	Sticky       bool `gorm:"not null;default:false"`
}

func (Rom) Kind() Kind { return KindRom }

func (r *Rom) BeforeCreate(tx *gorm.DB) error {
	r.prepare()
	return r.Validate()
}

// Incremental is a delta that patches FromVersion into ToVersion.
type Incremental struct {
	Artifact

	FromVersion string `gorm:"column:from_version;type:text;not null;index"`
	ToVersion   string `gorm:"column:to_version;type:text;not null"`
}

func (Incremental) Kind() Kind { return KindIncremental }

func (i *Incremental) Validate() error {
	if err := i.Artifact.Validate(); err != nil {
		return err
	}
	return validateRequired(map[string]string{
		"from_incremental": i.FromVersion,
		"to_incremental":   i.ToVersion,
	}, 0)
}

func (i *Incremental) BeforeCreate(tx *gorm.DB) error {
	i.prepare()
	return i.Validate()
}

// Build is satisfied by both artifact kinds.
type Build interface {
	Rom | Incremental

	Base() Artifact
	Kind() Kind
}

func validateRequired(fields map[string]string, size int64) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return apperr.New(apperr.ErrValidation, fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")))
	}
	if size < 0 {
		return apperr.New(apperr.ErrValidation, "romsize must not be negative")
	}
	return nil
}
