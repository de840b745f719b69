package lang

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/quill/log"
)

// globalCache stores parsed template roots keyed by source hash.
// Parse trees are collaborator-independent and immutable, so a cached
// root is shared by every Template created from the same source,
// whatever options each carries.
//
//nolint:gochecknoglobals
var globalCache sync.Map

// state tracks the one-time parse outcome for a source.
type state struct {
	once sync.Once
	root *groupNode
	err  error
}

// parseRootCached returns the parse tree for source, parsing on
// first use and replaying the stored outcome afterwards.
func parseRootCached(
	ctx context.Context,
	source string,
	logger log.Logger,
) (*groupNode, error) {
	// Hash with xxhash3 for performance
	sourceHash := xxh3.HashString(source)
	sourceKey := strconv.FormatUint(sourceHash, 36)

	entry := new(state)
	value, cacheHit := globalCache.LoadOrStore(sourceKey, entry)

	metadata, ok := value.(*state)
	if !ok {
		return parseRoot(ctx, source, logger)
	}

	logger.TraceContext(
		ctx,
		"cache lookup",
		slog.String("source_hash", strconv.FormatUint(sourceHash, 16)),
		slog.Bool("cache_hit", cacheHit),
	)

	metadata.once.Do(func() {
		metadata.root, metadata.err = parseRoot(ctx, source, logger)
	})

	return metadata.root, metadata.err
}

// ParseReader parses a template from an io.Reader.
// The reader drains through an asynchronous read-ahead buffer so data
// is pre-fetched while earlier chunks are processed.
func ParseReader(
	ctx context.Context,
	r io.Reader,
	opts ...Option,
) (*Template, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	return Parse(ctx, string(data), opts...)
}

// ClearCache removes all cached parse trees.
// This is primarily useful for testing or when memory needs to be
// reclaimed.
func ClearCache() {
	globalCache = sync.Map{}
}
