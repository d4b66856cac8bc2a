// Package metadata provides best-effort release metadata enrichment for
// catalog entries. Lookups never fail the caller: any network, decode or
// not-found condition degrades to an empty result.
package metadata

import (
	"context"
	"log/slog"
)

// Result is the enrichment for an artist/title pair. Absent fields stay
// empty.
type Result struct {
	Year       string `json:"year,omitempty"`
	Genre      string `json:"genre,omitempty"`
	CoverImage string `json:"coverImage,omitempty"`
}

// Empty reports whether the lookup produced nothing.
func (r Result) Empty() bool {
	return r == Result{}
}

// Source resolves metadata for an artist/title pair. Implementations never
// return an error; a failed lookup is an empty Result.
type Source interface {
	Lookup(ctx context.Context, artist, title string) Result
}

// SourceFunc adapts a function to the [Source] interface.
type SourceFunc func(ctx context.Context, artist, title string) Result

// Lookup satisfies [Source].
func (f SourceFunc) Lookup(ctx context.Context, artist, title string) Result {
	return f(ctx, artist, title)
}

// Chain queries sources in order and returns the first non-empty result.
func Chain(sources ...Source) SourceFunc {
	return func(ctx context.Context, artist, title string) Result {
		for _, source := range sources {
			if res := source.Lookup(ctx, artist, title); !res.Empty() {
				return res
			}
		}
		return Result{}
	}
}

// Default wires the lookup strategy for the process: the remote catalog
// backed by the curated local table when an API token is configured, the
// local table alone otherwise.
func Default(token string, logger *slog.Logger) Source {
	local := NewLocal()
	if token == "" {
		logger.Debug("no catalog API token configured, using local metadata table only")
		return local
	}
	return Chain(NewDiscogs(token, logger), local)
}
