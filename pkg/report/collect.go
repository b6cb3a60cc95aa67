package report

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/unity-tools/handler-report/pkg/pagination"
)

// HandlersEndpoint is the vmrest path listing all call handlers.
const HandlersEndpoint = "/handlers/callhandlers"

const handlerElement = "Callhandler"

// CollectHandlers streams the full handler listing into the dedup index.
// Unless includeAll is set, records that don't qualify as system handlers
// are skipped before dedup. Any transport or parse failure here is fatal
// for the run and returned to the caller. Returns the number of records
// fetched.
func CollectHandlers(ctx context.Context, fetcher *pagination.Fetcher, index *Index, includeAll bool) (int, error) {
	logger := log.With().Str("component", "collector").Logger()

	it := fetcher.FetchAll(ctx, HandlersEndpoint, handlerElement)

	for it.Next() {
		handlersSeenTotal.Inc()
		handler := CallHandlerFromRecord(it.Record())

		if !includeAll && !handler.IsSystemHandler() {
			handlersDroppedTotal.WithLabelValues("filtered").Inc()
			continue
		}

		if !index.Add(handler) {
			handlersDroppedTotal.WithLabelValues("duplicate").Inc()
			logger.Warn().
				Str("handler", handler.DisplayName).
				Str("dtmf_access_id", handler.DtmfAccessID).
				Str("object_id", handler.ObjectID).
				Msg("Duplicate handler detected, keeping first instance")
		}
	}

	if err := it.Err(); err != nil {
		return it.Count(), fmt.Errorf("collect call handlers: %w", err)
	}

	logEvent := logger.Info().
		Int("fetched", it.Count()).
		Int("unique", index.Len())
	if total, ok := it.Total(); ok {
		logEvent = logEvent.Int("reported_total", total)
	}
	logEvent.Msg("Handler collection complete")

	return it.Count(), nil
}
