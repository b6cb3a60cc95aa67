// Package testutil provides testing utilities for the report tool.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockCUPI is a configurable mock Unity Connection vmrest server for
// testing. Entity endpoints honor rowsPerPage/offset pagination the way
// the real API does.
type MockCUPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount     int
	ConditionalCount int
	PathCounts       map[string]int
	LastAuthUser     string
	LastAuthPass     string
}

// NewMockCUPI creates a new mock vmrest server.
func NewMockCUPI() *MockCUPI {
	mock := &MockCUPI{
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		PathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.PathCounts[r.URL.Path]++
		if user, pass, ok := r.BasicAuth(); ok {
			mock.LastAuthUser = user
			mock.LastAuthPass = pass
		}
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		// Unknown path
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, `<ErrorDetails><errors><code>404</code></errors></ErrorDetails>`)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockCUPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCUPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockCUPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.PathCounts = make(map[string]int)
	m.LastAuthUser = ""
	m.LastAuthPass = ""
}

// SetHandler sets a custom handler for a specific path.
func (m *MockCUPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockCUPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetEntities serves a paginated entity listing on path. Entities are
// XML fragments; wrapper is the plural root element name. Requests are
// sliced by rowsPerPage/offset and the root carries the total count.
func (m *MockCUPI) SetEntities(path, wrapper string, entities []string) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		rowsPerPage, _ := strconv.Atoi(r.URL.Query().Get("rowsPerPage"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if rowsPerPage <= 0 {
			rowsPerPage = len(entities)
		}

		start := offset
		if start > len(entities) {
			start = len(entities)
		}
		end := start + rowsPerPage
		if end > len(entities) {
			end = len(entities)
		}

		var sb strings.Builder
		sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
		fmt.Fprintf(&sb, `<%s total="%d">`, wrapper, len(entities))
		for _, entity := range entities[start:end] {
			sb.WriteString(entity)
		}
		fmt.Fprintf(&sb, `</%s>`, wrapper)

		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(sb.String()))
	})
}

// SetEntity serves a single-entity response on path.
func (m *MockCUPI) SetEntity(path, entityXML string) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(entityXML))
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockCUPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPathCount returns the number of requests made to one path.
func (m *MockCUPI) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PathCounts[path]
}

// CallHandlerXML builds a call handler entity fragment.
func CallHandlerXML(objectID, displayName, dtmfAccessID, scheduleSetID string) string {
	var sb strings.Builder
	sb.WriteString("<Callhandler>")
	fmt.Fprintf(&sb, "<ObjectId>%s</ObjectId>", objectID)
	fmt.Fprintf(&sb, "<DisplayName>%s</DisplayName>", displayName)
	if dtmfAccessID != "" {
		fmt.Fprintf(&sb, "<DtmfAccessId>%s</DtmfAccessId>", dtmfAccessID)
	}
	if scheduleSetID != "" {
		fmt.Fprintf(&sb, "<CallHandlerScheduleSetObjectId>%s</CallHandlerScheduleSetObjectId>", scheduleSetID)
	}
	sb.WriteString("</Callhandler>")
	return sb.String()
}

// ScheduleSetMemberXML builds a schedule set member entity fragment.
func ScheduleSetMemberXML(scheduleSetID, scheduleID string, memberOrder int) string {
	return fmt.Sprintf(
		"<ScheduleSetMember><ScheduleSetObjectId>%s</ScheduleSetObjectId><ScheduleObjectId>%s</ScheduleObjectId><MemberOrder>%d</MemberOrder></ScheduleSetMember>",
		scheduleSetID, scheduleID, memberOrder)
}

// ScheduleXML builds a schedule entity document.
func ScheduleXML(objectID, displayName string) string {
	return fmt.Sprintf(
		"<Schedule><ObjectId>%s</ObjectId><DisplayName>%s</DisplayName></Schedule>",
		objectID, displayName)
}
