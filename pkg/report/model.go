// Package report implements the call handler schedule report pipeline:
// collecting handlers, deduplicating them, resolving schedules through
// schedule-set membership, and emitting CSV rows.
package report

import (
	"strconv"
	"strings"

	"github.com/unity-tools/handler-report/pkg/xmlstream"
)

// CallHandler is one call-routing entity from the handler listing.
type CallHandler struct {
	ObjectID            string
	DisplayName         string
	DtmfAccessID        string
	ScheduleSetObjectID string
	Undeletable         bool
}

// Key is the composite dedup identity of a handler. Two records with the
// same display name and DTMF access id are the same logical handler even
// when the server assigned them different object ids.
type Key struct {
	DisplayName  string
	DtmfAccessID string
}

// Key returns the handler's dedup identity. The display name is trimmed
// and lowercased so cosmetic differences don't split a handler in two.
func (h CallHandler) Key() Key {
	return Key{
		DisplayName:  strings.ToLower(strings.TrimSpace(h.DisplayName)),
		DtmfAccessID: h.DtmfAccessID,
	}
}

// CallHandlerFromRecord builds a CallHandler from a parsed API record.
func CallHandlerFromRecord(rec xmlstream.Record) CallHandler {
	return CallHandler{
		ObjectID:            rec["ObjectId"],
		DisplayName:         rec["DisplayName"],
		DtmfAccessID:        rec["DtmfAccessId"],
		ScheduleSetObjectID: rec["CallHandlerScheduleSetObjectId"],
		Undeletable:         strings.EqualFold(rec["Undeletable"], "true"),
	}
}

// Well-known display names of handlers every Unity Connection system
// ships with.
var systemHandlerNames = map[string]bool{
	"auto attendant":   true,
	"opening greeting": true,
	"operator":         true,
}

// IsSystemHandler reports whether a handler belongs in the audit:
// undeletable stock handlers, handlers reachable by touch-tone, and the
// well-known system handlers by name.
func (h CallHandler) IsSystemHandler() bool {
	if h.Undeletable {
		return true
	}
	if h.DtmfAccessID != "" {
		return true
	}
	return systemHandlerNames[strings.ToLower(strings.TrimSpace(h.DisplayName))]
}

// ScheduleSetMember links a schedule set to one of its schedules with a
// precedence order.
type ScheduleSetMember struct {
	ScheduleSetObjectID string
	ScheduleObjectID    string
	MemberOrder         int
	// HasOrder is false when the API omitted MemberOrder, which it does
	// for single-member sets.
	HasOrder bool
	Exclude  bool
}

// MemberFromRecord builds a ScheduleSetMember from a parsed API record.
func MemberFromRecord(rec xmlstream.Record) ScheduleSetMember {
	m := ScheduleSetMember{
		ScheduleSetObjectID: rec["ScheduleSetObjectId"],
		ScheduleObjectID:    rec["ScheduleObjectId"],
		Exclude:             strings.EqualFold(rec["Exclude"], "true"),
	}
	if raw, ok := rec["MemberOrder"]; ok {
		if order, err := strconv.Atoi(raw); err == nil {
			m.MemberOrder = order
			m.HasOrder = true
		}
	}
	return m
}

// Schedule is the resolved, human-meaningful schedule entity.
type Schedule struct {
	ObjectID    string
	DisplayName string
}

// ReportRow is one output line of the report.
type ReportRow struct {
	DisplayName  string
	DtmfAccessID string
	// ScheduleName is empty when the handler has no resolvable schedule.
	ScheduleName string
}
