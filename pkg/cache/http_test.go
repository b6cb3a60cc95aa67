package cache

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"
)

func newTestResponse(body string, headers map[string]string) *http.Response {
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
	for k, v := range headers {
		resp.Header.Set(k, v)
	}
	return resp
}

func TestResponseToEntry(t *testing.T) {
	expires := time.Now().Add(10 * time.Minute).UTC().Truncate(time.Second)
	body := `<Callhandlers total="0"/>`

	resp := newTestResponse(body, map[string]string{
		"ETag":    `"abc123"`,
		"Expires": expires.Format(http.TimeFormat),
	})

	entry, err := ResponseToEntry(resp)
	if err != nil {
		t.Fatalf("ResponseToEntry: %v", err)
	}

	if string(entry.Data) != body {
		t.Errorf("Data = %q, want %q", entry.Data, body)
	}
	if entry.ETag != `"abc123"` {
		t.Errorf("ETag = %q, want %q", entry.ETag, `"abc123"`)
	}
	if !entry.Expires.Equal(expires) {
		t.Errorf("Expires = %v, want %v", entry.Expires, expires)
	}

	// Body must be readable again by the caller.
	restored, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Read restored body: %v", err)
	}
	if string(restored) != body {
		t.Errorf("Restored body = %q, want %q", restored, body)
	}
}

func TestResponseToEntry_NoExpiresHeader(t *testing.T) {
	resp := newTestResponse("data", nil)

	entry, err := ResponseToEntry(resp)
	if err != nil {
		t.Fatalf("ResponseToEntry: %v", err)
	}

	ttl := entry.TTL()
	if ttl <= 0 || ttl > DefaultTTL {
		t.Errorf("TTL = %v, want (0, %v]", ttl, DefaultTTL)
	}
}

func TestResponseToEntry_NilResponse(t *testing.T) {
	if _, err := ResponseToEntry(nil); err == nil {
		t.Error("Expected error for nil response")
	}
}

func TestEntryToResponse_RoundTrip(t *testing.T) {
	entry := &CacheEntry{
		Data:       []byte(`<Schedule><ObjectId>s1</ObjectId></Schedule>`),
		StatusCode: http.StatusOK,
		Headers:    http.Header{"Content-Type": []string{"application/xml"}},
	}

	resp := EntryToResponse(entry)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Read body: %v", err)
	}
	if string(body) != string(entry.Data) {
		t.Errorf("Body = %q, want %q", body, entry.Data)
	}
	if resp.Header.Get("Content-Type") != "application/xml" {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
}

func TestShouldMakeConditionalRequest(t *testing.T) {
	tests := []struct {
		name  string
		entry *CacheEntry
		want  bool
	}{
		{name: "nil entry", entry: nil, want: false},
		{name: "no validators", entry: &CacheEntry{}, want: false},
		{name: "etag only", entry: &CacheEntry{ETag: `"x"`}, want: true},
		{name: "last-modified only", entry: &CacheEntry{LastModified: time.Now()}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldMakeConditionalRequest(tt.entry); got != tt.want {
				t.Errorf("ShouldMakeConditionalRequest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddConditionalHeaders_PrefersETag(t *testing.T) {
	req, _ := http.NewRequest("GET", "http://unity.example.com/vmrest/schedules", nil)
	entry := &CacheEntry{
		ETag:         `"etag-1"`,
		LastModified: time.Now(),
	}

	AddConditionalHeaders(req, entry)

	if got := req.Header.Get("If-None-Match"); got != `"etag-1"` {
		t.Errorf("If-None-Match = %q, want %q", got, `"etag-1"`)
	}
	if req.Header.Get("If-Modified-Since") != "" {
		t.Error("If-Modified-Since should not be set when ETag is present")
	}
}
