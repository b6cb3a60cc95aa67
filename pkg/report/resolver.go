package report

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/unity-tools/handler-report/pkg/pagination"
)

const (
	memberElement   = "ScheduleSetMember"
	scheduleElement = "Schedule"
)

// Resolver resolves a handler's schedule-set reference to a schedule
// display name by walking schedule-set membership. Results, including
// "no schedule", are cached for the lifetime of the resolver so handlers
// sharing a schedule set cost one fetch.
type Resolver struct {
	fetcher *pagination.Fetcher
	cache   map[string]string
	logger  zerolog.Logger
}

// NewResolver creates a resolver with an empty cache. The cache lives
// and dies with the resolver; nothing persists across runs.
func NewResolver(fetcher *pagination.Fetcher) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		cache:   make(map[string]string),
		logger:  log.With().Str("component", "resolver").Logger(),
	}
}

// Resolve returns the display name of the effective schedule for the
// given schedule set, or "" when the handler has no resolvable schedule.
// An empty scheduleSetID short-circuits without any network traffic.
// Fetch failures are returned to the caller and are not cached.
func (r *Resolver) Resolve(ctx context.Context, scheduleSetID string) (string, error) {
	if scheduleSetID == "" {
		resolutionsTotal.WithLabelValues("unresolved").Inc()
		return "", nil
	}

	if name, ok := r.cache[scheduleSetID]; ok {
		resolutionCacheHitsTotal.Inc()
		return name, nil
	}

	members, err := r.fetchMembers(ctx, scheduleSetID)
	if err != nil {
		resolutionsTotal.WithLabelValues("error").Inc()
		return "", err
	}

	member, ok := pickMember(members)
	if !ok {
		r.logger.Warn().
			Str("schedule_set", scheduleSetID).
			Msg("Schedule set has no usable members")
		resolutionsTotal.WithLabelValues("unresolved").Inc()
		r.cache[scheduleSetID] = ""
		return "", nil
	}

	rec, err := r.fetcher.FetchOne(ctx, "/schedules/"+member.ScheduleObjectID, scheduleElement)
	if err != nil {
		resolutionsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("resolve schedule %s: %w", member.ScheduleObjectID, err)
	}

	name := rec["DisplayName"]
	r.cache[scheduleSetID] = name
	resolutionsTotal.WithLabelValues("resolved").Inc()

	r.logger.Debug().
		Str("schedule_set", scheduleSetID).
		Str("schedule", member.ScheduleObjectID).
		Str("name", name).
		Msg("Schedule resolved")

	return name, nil
}

// fetchMembers pulls every member record of a schedule set, dropping
// members flagged Exclude.
func (r *Resolver) fetchMembers(ctx context.Context, scheduleSetID string) ([]ScheduleSetMember, error) {
	endpoint := fmt.Sprintf("/schedulesets/%s/schedulesetmembers", scheduleSetID)

	var members []ScheduleSetMember
	it := r.fetcher.FetchAll(ctx, endpoint, memberElement)
	for it.Next() {
		member := MemberFromRecord(it.Record())
		if member.Exclude {
			continue
		}
		members = append(members, member)
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("fetch members of schedule set %s: %w", scheduleSetID, err)
	}

	return members, nil
}

// pickMember selects the active member: lowest MemberOrder wins. The API
// may return members unordered and may omit MemberOrder entirely, so the
// rule is made deterministic: members without an order sort after those
// with one, and ties keep the first-encountered member of the fetched
// sequence.
func pickMember(members []ScheduleSetMember) (ScheduleSetMember, bool) {
	if len(members) == 0 {
		return ScheduleSetMember{}, false
	}

	best := members[0]
	for _, m := range members[1:] {
		if betterOrder(m, best) {
			best = m
		}
	}

	if len(members) > 1 {
		log.Debug().
			Str("schedule_set", best.ScheduleSetObjectID).
			Int("members", len(members)).
			Int("member_order", best.MemberOrder).
			Msg("Multiple schedule set members, lowest order selected")
	}

	return best, true
}

// betterOrder reports whether a should replace b as the active member.
// Strict comparison keeps the first-encountered member on ties.
func betterOrder(a, b ScheduleSetMember) bool {
	if a.HasOrder != b.HasOrder {
		return a.HasOrder
	}
	return a.HasOrder && a.MemberOrder < b.MemberOrder
}
