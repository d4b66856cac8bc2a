package metadata

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/die-net/lrucache"
	"github.com/gregjones/httpcache"
)

const (
	discogsBaseURL = "https://api.discogs.com"

	// Response cache bounds. Discogs rate-limits aggressively, so repeated
	// lookups for the same release should not hit the network.
	cacheMaxBytes  = 4 << 20
	cacheMaxAgeSec = 3600

	lookupTimeout = 10 * time.Second
)

// Discogs looks up release metadata against the Discogs search API.
// Responses are cached in memory behind an LRU so repeat lookups stay off
// the wire.
type Discogs struct {
	token   string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewDiscogs creates a Discogs source authenticated with the given token.
func NewDiscogs(token string, logger *slog.Logger) *Discogs {
	transport := httpcache.NewTransport(lrucache.New(cacheMaxBytes, cacheMaxAgeSec))
	return &Discogs{
		token:   token,
		baseURL: discogsBaseURL,
		client: &http.Client{
			Transport: transport,
			Timeout:   lookupTimeout,
		},
		logger: logger,
	}
}

type discogsSearchResponse struct {
	Results []struct {
		Year       string   `json:"year"`
		Genre      []string `json:"genre"`
		Style      []string `json:"style"`
		CoverImage string   `json:"cover_image"`
		Thumb      string   `json:"thumb"`
	} `json:"results"`
}

// Lookup satisfies [Source]. Any failure degrades to an empty result.
func (d *Discogs) Lookup(ctx context.Context, artist, title string) Result {
	query := url.Values{
		"q":        {artist + " " + title},
		"type":     {"release"},
		"per_page": {"3"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		d.baseURL+"/database/search?"+query.Encode(), nil)
	if err != nil {
		return Result{}
	}
	req.Header.Set("Authorization", "Discogs token="+d.token)
	req.Header.Set("User-Agent", "waxcrate/1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.DebugContext(ctx, "catalog lookup failed", slog.Any("error", err))
		return Result{}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		d.logger.DebugContext(ctx, "catalog lookup failed",
			slog.Int("status", resp.StatusCode))
		return Result{}
	}

	var search discogsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		d.logger.DebugContext(ctx, "catalog response malformed", slog.Any("error", err))
		return Result{}
	}
	if len(search.Results) == 0 {
		return Result{}
	}

	first := search.Results[0]
	res := Result{
		Year:       first.Year,
		CoverImage: first.CoverImage,
	}
	if res.CoverImage == "" {
		res.CoverImage = first.Thumb
	}
	if len(first.Genre) > 0 {
		res.Genre = first.Genre[0]
	} else if len(first.Style) > 0 {
		res.Genre = first.Style[0]
	}
	return res
}
