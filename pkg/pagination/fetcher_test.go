package pagination

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

// fakePageSource serves pre-built XML pages keyed by endpoint, slicing
// them by rowsPerPage/offset the way the CUPI API does.
type fakePageSource struct {
	// records maps endpoint -> entity XML fragments.
	records map[string][]string
	element string
	// failAt triggers a transport error at the given offset (-1 = never).
	failAt int
	calls  int
}

func (f *fakePageSource) FetchPage(ctx context.Context, endpoint string, rowsPerPage, offset int) (io.ReadCloser, error) {
	f.calls++
	if f.failAt >= 0 && offset == f.failAt {
		return nil, errors.New("connection refused")
	}

	all := f.records[endpoint]
	end := offset + rowsPerPage
	if offset > len(all) {
		offset = len(all)
	}
	if end > len(all) {
		end = len(all)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<%ss total=\"%d\">", f.element, len(all))
	for _, rec := range all[offset:end] {
		sb.WriteString(rec)
	}
	fmt.Fprintf(&sb, "</%ss>", f.element)

	return io.NopCloser(strings.NewReader(sb.String())), nil
}

func handlerRecords(n int) []string {
	records := make([]string, n)
	for i := range records {
		records[i] = fmt.Sprintf(
			"<Callhandler><ObjectId>ch-%03d</ObjectId><DisplayName>Handler %d</DisplayName></Callhandler>", i, i)
	}
	return records
}

func TestFetchAll_TerminatesOnShortPage(t *testing.T) {
	// Pages of [100, 100, 37] must yield 237 records over three requests.
	source := &fakePageSource{
		records: map[string][]string{"/handlers/callhandlers": handlerRecords(237)},
		element: "Callhandler",
		failAt:  -1,
	}
	fetcher := NewFetcher(source, Config{RowsPerPage: 100})

	it := fetcher.FetchAll(context.Background(), "/handlers/callhandlers", "Callhandler")

	count := 0
	for it.Next() {
		count++
	}

	if it.Err() != nil {
		t.Fatalf("Iterator error: %v", it.Err())
	}
	if count != 237 {
		t.Errorf("Record count = %d, want 237", count)
	}
	if source.calls != 3 {
		t.Errorf("Page fetches = %d, want 3", source.calls)
	}
	if total, ok := it.Total(); !ok || total != 237 {
		t.Errorf("Total() = %d, %v, want 237, true", total, ok)
	}
}

func TestFetchAll_TerminatesOnExactMultiple(t *testing.T) {
	// 200 records at rowsPerPage=100: the third page is empty and ends
	// iteration without error.
	source := &fakePageSource{
		records: map[string][]string{"/handlers/callhandlers": handlerRecords(200)},
		element: "Callhandler",
		failAt:  -1,
	}
	fetcher := NewFetcher(source, Config{RowsPerPage: 100})

	it := fetcher.FetchAll(context.Background(), "/handlers/callhandlers", "Callhandler")

	count := 0
	for it.Next() {
		count++
	}

	if it.Err() != nil {
		t.Fatalf("Iterator error: %v", it.Err())
	}
	if count != 200 {
		t.Errorf("Record count = %d, want 200", count)
	}
	if source.calls != 3 {
		t.Errorf("Page fetches = %d, want 3", source.calls)
	}
}

func TestFetchAll_EmptyEndpoint(t *testing.T) {
	source := &fakePageSource{
		records: map[string][]string{},
		element: "Callhandler",
		failAt:  -1,
	}
	fetcher := NewFetcher(source, DefaultConfig())

	it := fetcher.FetchAll(context.Background(), "/handlers/callhandlers", "Callhandler")

	if it.Next() {
		t.Error("Next() = true for empty endpoint")
	}
	if it.Err() != nil {
		t.Errorf("Err() = %v, want nil", it.Err())
	}
	if it.Count() != 0 {
		t.Errorf("Count() = %d, want 0", it.Count())
	}
}

func TestFetchAll_TransportErrorSurfaced(t *testing.T) {
	source := &fakePageSource{
		records: map[string][]string{"/handlers/callhandlers": handlerRecords(150)},
		element: "Callhandler",
		failAt:  100,
	}
	fetcher := NewFetcher(source, Config{RowsPerPage: 100})

	it := fetcher.FetchAll(context.Background(), "/handlers/callhandlers", "Callhandler")

	count := 0
	for it.Next() {
		count++
	}

	if count != 100 {
		t.Errorf("Records before failure = %d, want 100", count)
	}
	if it.Err() == nil {
		t.Fatal("Expected transport error to surface through Err()")
	}
	if !strings.Contains(it.Err().Error(), "offset 100") {
		t.Errorf("Error %q does not name the failing offset", it.Err())
	}
}

func TestFetchOne(t *testing.T) {
	source := &fakePageSource{
		records: map[string][]string{
			"/schedules/sched-1": {"<Schedule><ObjectId>sched-1</ObjectId><DisplayName>Business Hours</DisplayName></Schedule>"},
		},
		element: "Schedule",
		failAt:  -1,
	}
	fetcher := NewFetcher(source, DefaultConfig())

	rec, err := fetcher.FetchOne(context.Background(), "/schedules/sched-1", "Schedule")
	if err != nil {
		t.Fatalf("FetchOne: %v", err)
	}
	if rec["DisplayName"] != "Business Hours" {
		t.Errorf("DisplayName = %q, want Business Hours", rec["DisplayName"])
	}
}

func TestFetchOne_NotFound(t *testing.T) {
	source := &fakePageSource{
		records: map[string][]string{},
		element: "Schedule",
		failAt:  -1,
	}
	fetcher := NewFetcher(source, DefaultConfig())

	_, err := fetcher.FetchOne(context.Background(), "/schedules/missing", "Schedule")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Error = %v, want ErrNotFound", err)
	}
}
