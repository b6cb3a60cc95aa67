package report

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RowSink receives report rows one at a time as they are produced.
type RowSink interface {
	WriteRow(row ReportRow) error
}

// Assembler joins resolved schedule names onto deduplicated handlers and
// streams one row per handler to the sink, preserving first-seen order.
type Assembler struct {
	resolver *Resolver
	sink     RowSink
	// strict aborts the run on the first resolution failure instead of
	// emitting the row with an empty schedule name.
	strict bool
	logger zerolog.Logger
}

// NewAssembler creates an assembler writing to the given sink.
func NewAssembler(resolver *Resolver, sink RowSink, strict bool) *Assembler {
	return &Assembler{
		resolver: resolver,
		sink:     sink,
		strict:   strict,
		logger:   log.With().Str("component", "assembler").Logger(),
	}
}

// Run produces exactly one row per handler, in the order given. Rows are
// written as they are resolved; nothing is buffered.
func (a *Assembler) Run(ctx context.Context, handlers []CallHandler) error {
	for _, handler := range handlers {
		name, err := a.resolver.Resolve(ctx, handler.ScheduleSetObjectID)
		if err != nil {
			if a.strict {
				return fmt.Errorf("resolve schedule for handler %q: %w", handler.DisplayName, err)
			}
			a.logger.Warn().
				Err(err).
				Str("handler", handler.DisplayName).
				Str("schedule_set", handler.ScheduleSetObjectID).
				Msg("Schedule resolution failed, reporting handler without schedule")
			name = ""
		}

		row := ReportRow{
			DisplayName:  handler.DisplayName,
			DtmfAccessID: handler.DtmfAccessID,
			ScheduleName: name,
		}
		if err := a.sink.WriteRow(row); err != nil {
			return fmt.Errorf("write row for handler %q: %w", handler.DisplayName, err)
		}
		rowsWrittenTotal.Inc()
	}

	a.logger.Info().
		Int("rows", len(handlers)).
		Msg("Report assembly complete")

	return nil
}
