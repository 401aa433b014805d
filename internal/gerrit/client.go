// Package gerrit reads merged change history from a Gerrit code review
// server. It only ever issues GET requests.
package gerrit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperr "github.com/mwantia/updater/internal/errors"
)

// Gerrit prefixes JSON bodies with this line to defeat XSSI.
var xssiPrefix = []byte(")]}'")

const timestampLayout = "2006-01-02 15:04:05.000000000"

// Change is one merged change as presented to changelog consumers.
type Change struct {
	ID        string `json:"id"`
	Number    int    `json:"number"`
	Project   string `json:"project"`
	Branch    string `json:"branch"`
	Subject   string `json:"subject"`
	Submitted int64  `json:"submitted"`
	URL       string `json:"url"`
}

// Query scopes a change listing. Before is a unix timestamp watermark;
// values <= 0 disable pagination.
type Query struct {
	Device string
	Before int64
}

type changeInfo struct {
	ID        string `json:"id"`
	Number    int    `json:"_number"`
	Project   string `json:"project"`
	Branch    string `json:"branch"`
	Subject   string `json:"subject"`
	Submitted string `json:"submitted"`
}

type Client struct {
	baseURL string
	limit   int
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration, limit int) *Client {
	if limit <= 0 {
		limit = 100
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		limit:   limit,
		http:    &http.Client{Timeout: timeout},
	}
}

// BuildQuery renders the gerrit search expression for q.
func BuildQuery(q Query) string {
	terms := []string{"status:merged"}
	if q.Device != "" {
		device := regexp.QuoteMeta(q.Device)
		terms = append(terms, fmt.Sprintf("(-project:^.*_device_.* OR project:^.*_device_.*_%s)", device))
	}
	if q.Before > 0 {
		before := time.Unix(q.Before, 0).UTC().Format("2006-01-02 15:04:05")
		terms = append(terms, fmt.Sprintf("before:\"%s\"", before))
	}
	return strings.Join(terms, " ")
}

// Changes returns merged changes newest first, exactly as gerrit orders them.
func (c *Client) Changes(ctx context.Context, q Query) ([]Change, error) {
	params := url.Values{}
	params.Set("q", BuildQuery(q))
	params.Set("n", strconv.Itoa(c.limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/changes/?"+params.Encode(), nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, "failed to build gerrit request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrUpstreamUnavailable, "gerrit request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.New(apperr.ErrUpstreamUnavailable, fmt.Sprintf("gerrit returned %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrUpstreamUnavailable, "failed to read gerrit response", err)
	}
	body = bytes.TrimPrefix(bytes.TrimSpace(body), xssiPrefix)

	var infos []changeInfo
	if err := json.Unmarshal(body, &infos); err != nil {
		return nil, apperr.Wrap(apperr.ErrUpstreamUnavailable, "malformed gerrit response", err)
	}

	changes := make([]Change, 0, len(infos))
	for _, info := range infos {
		submitted, err := parseTimestamp(info.Submitted)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrUpstreamUnavailable, fmt.Sprintf("malformed submitted time on change %d", info.Number), err)
		}
		changes = append(changes, Change{
			ID:        info.ID,
			Number:    info.Number,
			Project:   info.Project,
			Branch:    info.Branch,
			Subject:   info.Subject,
			Submitted: submitted,
			URL:       fmt.Sprintf("%s/c/%d", c.baseURL, info.Number),
		})
	}
	return changes, nil
}

func parseTimestamp(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	t, err := time.ParseInLocation(timestampLayout, value, time.UTC)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}
