// Package xmlstream provides incremental parsing of CUPI XML responses.
//
// CUPI list responses wrap entity elements in a plural root element that
// carries a "total" attribute, e.g.:
//
//	<Callhandlers total="237">
//	  <Callhandler>
//	    <ObjectId>...</ObjectId>
//	    <DisplayName>...</DisplayName>
//	  </Callhandler>
//	</Callhandlers>
//
// The scanner walks the token stream and yields one Record per entity
// element, so peak memory is bounded by a single record regardless of
// page size.
package xmlstream

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Record is one parsed entity: child element local name -> text content.
type Record map[string]string

// ParseError indicates a structurally malformed response body. It is
// distinct from an empty page, which ends iteration without error.
type ParseError struct {
	Element string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s records: %v", e.Element, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Scanner is a pull-based iterator over entity records in one response
// body. It is finite and non-restartable; the input stream is consumed
// as records are pulled.
type Scanner struct {
	dec     *xml.Decoder
	element string

	rec      Record
	err      error
	done     bool
	sawRoot  bool
	total    int
	hasTotal bool
}

// NewScanner creates a scanner that yields every <element> record found
// in r. Element matching uses the local name only, so namespaced
// responses are handled transparently.
func NewScanner(r io.Reader, element string) *Scanner {
	return &Scanner{
		dec:     xml.NewDecoder(r),
		element: element,
	}
}

// Next advances to the next record. It returns false when the input is
// exhausted or a parse error occurred; check Err to distinguish.
func (s *Scanner) Next() bool {
	if s.done || s.err != nil {
		return false
	}

	for {
		tok, err := s.dec.Token()
		if err == io.EOF {
			s.done = true
			return false
		}
		if err != nil {
			s.err = &ParseError{Element: s.element, Err: err}
			return false
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		// The root element carries the total count for list responses.
		// Single-entity responses use the target element as the root.
		if !s.sawRoot {
			s.sawRoot = true
			s.readTotal(start)
		}

		if start.Name.Local == s.element {
			rec, err := s.parseRecord(start)
			if err != nil {
				s.err = &ParseError{Element: s.element, Err: err}
				return false
			}
			s.rec = rec
			return true
		}
	}
}

// Record returns the record parsed by the last successful Next call.
func (s *Scanner) Record() Record {
	return s.rec
}

// Err returns the first error encountered while scanning, or nil.
func (s *Scanner) Err() error {
	return s.err
}

// Total returns the expected total record count from the response
// metadata, if the root element declared one. Pagination does not depend
// on it; it exists for progress reporting.
func (s *Scanner) Total() (int, bool) {
	return s.total, s.hasTotal
}

// readTotal extracts the "total" attribute from the root element.
func (s *Scanner) readTotal(start xml.StartElement) {
	for _, attr := range start.Attr {
		if attr.Name.Local == "total" {
			if n, err := strconv.Atoi(attr.Value); err == nil {
				s.total = n
				s.hasTotal = true
			}
			return
		}
	}
}

// parseRecord consumes tokens up to the closing tag of the record
// element, collecting the text of each direct child element. Nested
// structure below a child is flattened into that child's text.
func (s *Scanner) parseRecord(start xml.StartElement) (Record, error) {
	rec := make(Record)

	var (
		field string
		buf   strings.Builder
		depth int
	)

	for {
		tok, err := s.dec.Token()
		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("unexpected EOF inside <%s>", start.Name.Local)
			}
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				field = t.Name.Local
				buf.Reset()
			}
		case xml.CharData:
			if depth >= 1 {
				buf.Write(t)
			}
		case xml.EndElement:
			if depth == 0 {
				// Closing tag of the record element itself.
				return rec, nil
			}
			if depth == 1 {
				rec[field] = strings.TrimSpace(buf.String())
			}
			depth--
		}
	}
}
