// Package pagination drives offset-based fetching of paginated CUPI endpoints.
package pagination

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/unity-tools/handler-report/pkg/xmlstream"
)

// ErrNotFound is returned by FetchOne when the response contains no
// matching entity element.
var ErrNotFound = errors.New("entity not found in response")

// PageFetcher is the interface the API client must implement for
// single-page fetching. The returned body is owned by the caller and
// must be closed after parsing.
type PageFetcher interface {
	FetchPage(ctx context.Context, endpoint string, rowsPerPage, offset int) (io.ReadCloser, error)
}

// Config holds fetcher configuration.
type Config struct {
	// RowsPerPage is the page size requested from the API.
	RowsPerPage int
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		RowsPerPage: 200,
	}
}

// Fetcher walks paginated endpoints sequentially, yielding parsed
// records through a pull iterator. Pages are requested one at a time
// and parsed incrementally, so memory stays bounded by a single record.
type Fetcher struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger
}

// NewFetcher creates a fetcher over the given page source.
func NewFetcher(fetcher PageFetcher, config Config) *Fetcher {
	if config.RowsPerPage <= 0 {
		config.RowsPerPage = 200
	}

	return &Fetcher{
		fetcher: fetcher,
		config:  config,
		logger:  log.With().Str("component", "pagination").Logger(),
	}
}

// FetchAll returns a lazy iterator over every <element> record of the
// endpoint. Pagination advances the offset by RowsPerPage until a page
// comes back short or empty. Transport and parse failures end iteration
// and are reported through Iterator.Err; the fetcher never retries.
func (f *Fetcher) FetchAll(ctx context.Context, endpoint, element string) *Iterator {
	return &Iterator{
		ctx:      ctx,
		fetcher:  f,
		endpoint: endpoint,
		element:  element,
	}
}

// FetchOne performs a single-entity lookup (no pagination) and returns
// the first <element> record of the response. Returns ErrNotFound when
// the response parses cleanly but holds no such element.
func (f *Fetcher) FetchOne(ctx context.Context, endpoint, element string) (xmlstream.Record, error) {
	body, err := f.fetcher.FetchPage(ctx, endpoint, 1, 0)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	defer body.Close()

	scanner := xmlstream.NewScanner(body, element)
	if !scanner.Next() {
		if scanErr := scanner.Err(); scanErr != nil {
			return nil, scanErr
		}
		return nil, fmt.Errorf("%s: %w", endpoint, ErrNotFound)
	}

	return scanner.Record(), nil
}

// Iterator is a lazy, finite, non-restartable sequence of records
// spanning every page of one endpoint.
type Iterator struct {
	ctx      context.Context
	fetcher  *Fetcher
	endpoint string
	element  string

	body     io.ReadCloser
	scanner  *xmlstream.Scanner
	offset   int
	pageSize int
	count    int
	done     bool
	err      error

	total    int
	hasTotal bool
}

// Next advances to the next record, fetching the next page when the
// current one is exhausted. Returns false at end of data or on error.
func (it *Iterator) Next() bool {
	if it.done || it.err != nil {
		return false
	}

	for {
		if it.scanner == nil {
			if !it.fetchPage() {
				return false
			}
		}

		if it.scanner.Next() {
			it.pageSize++
			it.count++
			if !it.hasTotal {
				if total, ok := it.scanner.Total(); ok {
					it.total = total
					it.hasTotal = true
				}
			}
			return true
		}

		if scanErr := it.scanner.Err(); scanErr != nil {
			it.err = scanErr
			it.closeBody()
			return false
		}

		// Page exhausted cleanly. A short or empty page is the last one.
		it.closeBody()
		last := it.pageSize < it.fetcher.config.RowsPerPage
		it.fetcher.logger.Debug().
			Str("endpoint", it.endpoint).
			Int("offset", it.offset).
			Int("page_records", it.pageSize).
			Bool("last_page", last).
			Msg("Page consumed")

		it.scanner = nil
		it.offset += it.fetcher.config.RowsPerPage
		if last {
			it.done = true
			return false
		}
	}
}

// Record returns the record produced by the last successful Next call.
func (it *Iterator) Record() xmlstream.Record {
	return it.scanner.Record()
}

// Err returns the first transport or parse error encountered, or nil.
func (it *Iterator) Err() error {
	return it.err
}

// Count returns the number of records yielded so far.
func (it *Iterator) Count() int {
	return it.count
}

// Total returns the expected total record count reported by the API,
// when the first page carried one. Termination never depends on it.
func (it *Iterator) Total() (int, bool) {
	return it.total, it.hasTotal
}

// fetchPage requests the page at the current offset and prepares its
// scanner. Returns false when the fetch fails.
func (it *Iterator) fetchPage() bool {
	body, err := it.fetcher.fetcher.FetchPage(it.ctx, it.endpoint, it.fetcher.config.RowsPerPage, it.offset)
	if err != nil {
		it.err = fmt.Errorf("fetch %s at offset %d: %w", it.endpoint, it.offset, err)
		return false
	}

	it.body = body
	it.scanner = xmlstream.NewScanner(body, it.element)
	it.pageSize = 0
	return true
}

func (it *Iterator) closeBody() {
	if it.body != nil {
		it.body.Close()
		it.body = nil
	}
	if it.scanner != nil && !it.hasTotal {
		if total, ok := it.scanner.Total(); ok {
			it.total = total
			it.hasTotal = true
		}
	}
}
