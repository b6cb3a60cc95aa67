package xmlstream

import (
	"errors"
	"strings"
	"testing"
)

const handlerPage = `<?xml version="1.0" encoding="UTF-8"?>
<Callhandlers total="3">
  <Callhandler>
    <ObjectId>ch-001</ObjectId>
    <DisplayName>Opening Greeting</DisplayName>
    <DtmfAccessId>100</DtmfAccessId>
    <CallHandlerScheduleSetObjectId>ss-001</CallHandlerScheduleSetObjectId>
  </Callhandler>
  <Callhandler>
    <ObjectId>ch-002</ObjectId>
    <DisplayName>Operator</DisplayName>
    <DtmfAccessId>0</DtmfAccessId>
  </Callhandler>
  <Callhandler>
    <ObjectId>ch-003</ObjectId>
    <DisplayName>After Hours</DisplayName>
    <DtmfAccessId>300</DtmfAccessId>
    <CallHandlerScheduleSetObjectId>ss-002</CallHandlerScheduleSetObjectId>
  </Callhandler>
</Callhandlers>`

func collect(t *testing.T, s *Scanner) []Record {
	t.Helper()

	var records []Record
	for s.Next() {
		records = append(records, s.Record())
	}
	return records
}

func TestScanner_ListResponse(t *testing.T) {
	s := NewScanner(strings.NewReader(handlerPage), "Callhandler")

	records := collect(t, s)
	if s.Err() != nil {
		t.Fatalf("Scan error: %v", s.Err())
	}

	if len(records) != 3 {
		t.Fatalf("Record count = %d, want 3", len(records))
	}

	first := records[0]
	if first["ObjectId"] != "ch-001" {
		t.Errorf("ObjectId = %q, want ch-001", first["ObjectId"])
	}
	if first["DisplayName"] != "Opening Greeting" {
		t.Errorf("DisplayName = %q, want Opening Greeting", first["DisplayName"])
	}
	if first["CallHandlerScheduleSetObjectId"] != "ss-001" {
		t.Errorf("CallHandlerScheduleSetObjectId = %q, want ss-001",
			first["CallHandlerScheduleSetObjectId"])
	}

	// Second record has no schedule set reference at all.
	if _, ok := records[1]["CallHandlerScheduleSetObjectId"]; ok {
		t.Error("Expected absent CallHandlerScheduleSetObjectId in second record")
	}

	total, ok := s.Total()
	if !ok || total != 3 {
		t.Errorf("Total() = %d, %v, want 3, true", total, ok)
	}
}

func TestScanner_SingleEntityResponse(t *testing.T) {
	body := `<Schedule>
  <ObjectId>sched-001</ObjectId>
  <DisplayName>Business Hours</DisplayName>
</Schedule>`

	s := NewScanner(strings.NewReader(body), "Schedule")

	if !s.Next() {
		t.Fatalf("Next() = false, err = %v", s.Err())
	}
	rec := s.Record()
	if rec["DisplayName"] != "Business Hours" {
		t.Errorf("DisplayName = %q, want Business Hours", rec["DisplayName"])
	}
	if s.Next() {
		t.Error("Expected exactly one record")
	}
	if s.Err() != nil {
		t.Errorf("Err() = %v, want nil", s.Err())
	}
}

func TestScanner_EmptyPage(t *testing.T) {
	body := `<Callhandlers total="0"/>`

	s := NewScanner(strings.NewReader(body), "Callhandler")

	if s.Next() {
		t.Error("Next() = true for empty page")
	}
	// Empty page is valid, not a parse error.
	if s.Err() != nil {
		t.Errorf("Err() = %v, want nil", s.Err())
	}
	if total, ok := s.Total(); !ok || total != 0 {
		t.Errorf("Total() = %d, %v, want 0, true", total, ok)
	}
}

func TestScanner_MalformedDocument(t *testing.T) {
	body := `<Callhandlers><Callhandler><ObjectId>ch-1</ObjectId>`

	s := NewScanner(strings.NewReader(body), "Callhandler")

	for s.Next() {
	}

	err := s.Err()
	if err == nil {
		t.Fatal("Expected parse error for truncated document")
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Error type = %T, want *ParseError", err)
	}
	if parseErr.Element != "Callhandler" {
		t.Errorf("ParseError.Element = %q, want Callhandler", parseErr.Element)
	}
}

func TestScanner_NamespacedElements(t *testing.T) {
	body := `<ns:Schedules xmlns:ns="http://example.com/vmrest" total="1">
  <ns:Schedule>
    <ns:ObjectId>sched-9</ns:ObjectId>
    <ns:DisplayName>Weekends</ns:DisplayName>
  </ns:Schedule>
</ns:Schedules>`

	s := NewScanner(strings.NewReader(body), "Schedule")

	if !s.Next() {
		t.Fatalf("Next() = false, err = %v", s.Err())
	}
	if got := s.Record()["DisplayName"]; got != "Weekends" {
		t.Errorf("DisplayName = %q, want Weekends", got)
	}
}

func TestScanner_NoTotalAttribute(t *testing.T) {
	body := `<Schedules><Schedule><ObjectId>s1</ObjectId></Schedule></Schedules>`

	s := NewScanner(strings.NewReader(body), "Schedule")
	collect(t, s)

	if _, ok := s.Total(); ok {
		t.Error("Total() reported present for response without total attribute")
	}
}

func TestScanner_NextAfterExhaustion(t *testing.T) {
	s := NewScanner(strings.NewReader(`<Callhandlers/>`), "Callhandler")

	if s.Next() {
		t.Fatal("Next() = true for empty document")
	}
	// Further calls must stay false without panicking.
	if s.Next() {
		t.Error("Next() = true after exhaustion")
	}
}
