package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/daqtools/rdhscan/internal/its"
	"github.com/daqtools/rdhscan/internal/model"
	"github.com/daqtools/rdhscan/internal/rdh"
)

// buildStream concatenates pages into a capture. Each page is a header plus
// exactly the payload its memory size declares.
func buildStream(t *testing.T, pages ...CDP) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, p := range pages {
		p := p
		if p.RDH.PayloadSize() != len(p.Payload) {
			t.Fatalf("fixture page declares %d payload bytes but carries %d", p.RDH.PayloadSize(), len(p.Payload))
		}
		buf.Write(p.RDH.Bytes())
		buf.Write(p.Payload)
	}
	return buf.Bytes()
}

// page builds a CDP fixture from a header and payload words.
func page(h rdh.RDH, words ...[]byte) CDP {
	payload := its.Payload(h.DataFormat, words...)
	return CDP{RDH: rdh.WithPayload(h, len(payload)), Payload: payload}
}

// TestScannerWellFormed verifies offsets, payload sizes, and the clean EOF
// over a two-link stream.
func TestScannerWellFormed(t *testing.T) {
	t.Parallel()

	raw := buildStream(t,
		page(rdh.CorrectV7, its.BuildIHW(0x7F)),
		page(rdh.WithLink(rdh.CorrectV7, 1), its.BuildIHW(0x7F), its.BuildTDH(its.TDH{})),
		page(rdh.WithStop(rdh.CorrectV7), its.BuildTDT(true)),
	)

	s := NewScanner(bytes.NewReader(raw))

	first, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Offset != 0 {
		t.Errorf("first offset: got %d, expected 0", first.Offset)
	}
	if len(first.Payload) != its.WordBytes {
		t.Errorf("first payload: got %d bytes, expected %d", len(first.Payload), its.WordBytes)
	}

	second, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Offset != 74 {
		t.Errorf("second offset: got %d, expected 74", second.Offset)
	}
	if second.RDH.LinkID != 1 {
		t.Errorf("second link: got %d, expected 1", second.RDH.LinkID)
	}

	if _, err := s.Next(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("got %v, expected io.EOF", err)
	}
	if s.Pages() != 3 {
		t.Errorf("pages: got %d, expected 3", s.Pages())
	}
}

// TestScannerTruncated tests both truncation points: inside a header and
// inside a declared payload.
func TestScannerTruncated(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		raw  []byte
	}{
		{
			name: "mid header",
			raw:  rdh.CorrectV7.Bytes()[:40],
		},
		{
			name: "mid payload",
			raw:  append(rdh.WithPayload(rdh.CorrectV7, 160).Bytes(), make([]byte, 80)...),
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := NewScanner(bytes.NewReader(tc.raw))
			_, err := s.Next()
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("got %v, expected *DecodeError", err)
			}
			if decodeErr.Kind != KindTruncated {
				t.Errorf("got kind %v, expected Truncated", decodeErr.Kind)
			}
		})
	}
}

// TestScannerResync verifies a malformed mid-stream header is reported as a
// finding and skipped using its declared extent.
func TestScannerResync(t *testing.T) {
	t.Parallel()

	bad := rdh.WithPayload(rdh.CorrectV7, 32)
	bad.HeaderSize = 60 // self-inconsistent, extent still usable

	var buf bytes.Buffer
	buf.Write(buildStream(t, page(rdh.CorrectV7, its.BuildIHW(0x7F))))
	buf.Write(bad.Bytes())
	buf.Write(make([]byte, 32))
	buf.Write(buildStream(t, page(rdh.WithStop(rdh.CorrectV7), its.BuildTDT(true))))

	var findings []model.Finding
	s := NewScanner(&buf, WithFindingSink(func(f model.Finding) {
		findings = append(findings, f)
	}))

	if _, err := s.Next(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	third, err := s.Next()
	if err != nil {
		t.Fatalf("expected resync to yield the third page, got %v", err)
	}
	if !third.RDH.StopSet() {
		t.Error("resynchronized onto the wrong page")
	}

	if len(findings) != 1 {
		t.Fatalf("got %d findings, expected 1", len(findings))
	}
	if findings[0].Code != model.CodeMalformedHeader {
		t.Errorf("got code %v, expected %v", findings[0].Code, model.CodeMalformedHeader)
	}
	if findings[0].Offset != 74 {
		t.Errorf("finding offset: got %d, expected 74", findings[0].Offset)
	}
}

// TestScannerUnsupportedVersionMidStream verifies the finding code for a
// foreign version header after a valid first page.
func TestScannerUnsupportedVersionMidStream(t *testing.T) {
	t.Parallel()

	alien := rdh.WithPayload(rdh.CorrectV7, 0)
	alien.Version = 4

	var buf bytes.Buffer
	buf.Write(buildStream(t, page(rdh.CorrectV7)))
	buf.Write(alien.Bytes())
	buf.Write(buildStream(t, page(rdh.WithStop(rdh.CorrectV7))))

	var findings []model.Finding
	s := NewScanner(&buf, WithFindingSink(func(f model.Finding) {
		findings = append(findings, f)
	}))

	for i := 0; i < 2; i++ {
		if _, err := s.Next(); err != nil {
			t.Fatalf("page %d: unexpected error: %v", i, err)
		}
	}
	if len(findings) != 1 || findings[0].Code != model.CodeUnsupportedVersion {
		t.Fatalf("got %v, expected one UnsupportedVersion finding", findings)
	}
}

// TestScannerFirstPageUndecodable verifies there is no recovery without a
// prior page: the error is terminal even with a sink installed.
func TestScannerFirstPageUndecodable(t *testing.T) {
	t.Parallel()

	bad := rdh.CorrectV7
	bad.Version = 3

	s := NewScanner(bytes.NewReader(bad.Bytes()), WithFindingSink(func(model.Finding) {
		t.Error("no finding expected for a terminal first-page failure")
	}))

	_, err := s.Next()
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("got %v, expected *DecodeError", err)
	}
	if decodeErr.Kind != KindUnsupportedVersion {
		t.Errorf("got kind %v, expected UnsupportedVersion", decodeErr.Kind)
	}
}

// TestScannerRun verifies the channel producer delivers every page in
// stream order and honors cancellation.
func TestScannerRun(t *testing.T) {
	t.Parallel()

	t.Run("delivers all pages", func(t *testing.T) {
		t.Parallel()
		raw := buildStream(t,
			page(rdh.CorrectV7, its.BuildIHW(0x7F)),
			page(rdh.CorrectV7, its.BuildTDH(its.TDH{})),
			page(rdh.WithStop(rdh.CorrectV7), its.BuildTDT(true)),
		)

		s := NewScanner(bytes.NewReader(raw))
		out := make(chan CDP, 1)
		done := make(chan error, 1)
		go func() { done <- s.Run(context.Background(), out) }()

		var count int
		var last uint64
		for cdp := range out {
			if cdp.Offset < last {
				t.Errorf("pages out of order: %d after %d", cdp.Offset, last)
			}
			last = cdp.Offset
			count++
		}
		if err := <-done; err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 3 {
			t.Errorf("got %d pages, expected 3", count)
		}
	})

	t.Run("cancellation stops the producer", func(t *testing.T) {
		t.Parallel()
		raw := buildStream(t,
			page(rdh.CorrectV7),
			page(rdh.CorrectV7),
		)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		s := NewScanner(bytes.NewReader(raw))
		out := make(chan CDP) // unbuffered: the send must block
		err := s.Run(ctx, out)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("got %v, expected context.Canceled", err)
		}
	})
}

// TestScannerSkipPayload verifies payload bytes are consumed but not
// retained in header-only mode.
func TestScannerSkipPayload(t *testing.T) {
	t.Parallel()

	raw := buildStream(t,
		page(rdh.CorrectV7, its.BuildIHW(0x7F), its.BuildTDH(its.TDH{})),
		page(rdh.WithStop(rdh.CorrectV7), its.BuildTDT(true)),
	)

	s := NewScanner(bytes.NewReader(raw), WithSkipPayload(true))

	first, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Payload != nil {
		t.Errorf("got %d payload bytes, expected none retained", len(first.Payload))
	}

	second, err := s.Next()
	if err != nil {
		t.Fatalf("payload skipping broke alignment: %v", err)
	}
	if second.Offset != 84 {
		t.Errorf("second offset: got %d, expected 84", second.Offset)
	}
}
