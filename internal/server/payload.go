package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mwantia/updater/pkg/db/models"
)

// Semantic types a payload field must be coercible to.
const (
	typeStr  = "str"
	typeInt  = "int"
	typeBool = "bool"
)

var romSchema = map[string]string{
	"filename":   typeStr,
	"device":     typeStr,
	"version":    typeStr,
	"md5sum":     typeStr,
	"url":        typeStr,
	"romtype":    typeStr,
	"romsize":    typeInt,
	"hasbootimg": typeBool,
}

var incrementalSchema = map[string]string{
	"filename":         typeStr,
	"device":           typeStr,
	"version":          typeStr,
	"md5sum":           typeStr,
	"url":              typeStr,
	"romtype":          typeStr,
	"romsize":          typeInt,
	"from_incremental": typeStr,
	"to_incremental":   typeStr,
}

var (
	romOptional         = map[string]string{"sticky": typeBool, "datetime": typeInt}
	incrementalOptional = map[string]string{"datetime": typeInt}
)

// rejection is a ready-made error response for a bad payload.
type rejection struct {
	status int
	body   any
}

// payload holds the coerced values of a validated request body.
type payload struct {
	strs  map[string]string
	ints  map[string]int64
	bools map[string]bool
}

// parsePayload decodes body and checks it against the required and
// optional schemas. An unreadable body answers 400 with the schema, a
// missing field 406 with the schema, and an uncoercible or unknown field
// 406 with a descriptive error.
func parsePayload(body []byte, required, optional map[string]string) (*payload, *rejection) {
	var data map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil || len(data) == 0 {
		return nil, &rejection{status: fiber.StatusBadRequest, body: required}
	}

	for key := range required {
		if _, ok := data[key]; !ok {
			return nil, &rejection{status: fiber.StatusNotAcceptable, body: required}
		}
	}

	p := &payload{
		strs:  make(map[string]string),
		ints:  make(map[string]int64),
		bools: make(map[string]bool),
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		kind, ok := required[key]
		if !ok {
			kind, ok = optional[key]
		}
		if !ok {
			return nil, notAcceptable(fmt.Sprintf("%s is not a known field", key))
		}
		if err := p.coerce(key, kind, data[key]); err != nil {
			return nil, notAcceptable(fmt.Sprintf("%s must be parseable as %s", key, kind))
		}
	}
	return p, nil
}

func notAcceptable(msg string) *rejection {
	return &rejection{status: fiber.StatusNotAcceptable, body: fiber.Map{"error": msg}}
}

func (p *payload) coerce(key, kind string, value any) error {
	switch kind {
	case typeStr:
		v, err := coerceString(value)
		p.strs[key] = v
		return err
	case typeInt:
		v, err := coerceInt(value)
		p.ints[key] = v
		return err
	case typeBool:
		v, err := coerceBool(value)
		p.bools[key] = v
		return err
	}
	return fmt.Errorf("unknown type %s", kind)
}

func coerceString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	}
	return "", fmt.Errorf("cannot convert %T to string", value)
}

func coerceInt(value any) (int64, error) {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
		if err != nil || math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
			return 0, fmt.Errorf("invalid number %s", v)
		}
		return int64(f), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("cannot convert %T to int", value)
}

func coerceBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return false, err
		}
		return f != 0, nil
	}
	return false, fmt.Errorf("cannot convert %T to bool", value)
}

func (p *payload) artifact() models.Artifact {
	a := models.Artifact{
		Filename: p.strs["filename"],
		Device:   p.strs["device"],
		Version:  p.strs["version"],
		RomType:  p.strs["romtype"],
		MD5Sum:   p.strs["md5sum"],
		URL:      p.strs["url"],
		Size:     p.ints["romsize"],
	}
	if ts, ok := p.ints["datetime"]; ok {
		a.CreatedAt = time.Unix(ts, 0).UTC()
	}
	return a
}

func decodeRom(body []byte) (*models.Rom, *rejection) {
	p, res := parsePayload(body, romSchema, romOptional)
	if res != nil {
		return nil, res
	}
	return &models.Rom{
		Artifact:     p.artifact(),
		HasBootImage: p.bools["hasbootimg"],
		Sticky:       p.bools["sticky"],
	}, nil
}

func decodeIncremental(body []byte) (*models.Incremental, *rejection) {
	p, res := parsePayload(body, incrementalSchema, incrementalOptional)
	if res != nil {
		return nil, res
	}
	return &models.Incremental{
		Artifact:    p.artifact(),
		FromVersion: p.strs["from_incremental"],
		ToVersion:   p.strs["to_incremental"],
	}, nil
}
