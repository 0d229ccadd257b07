package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/daqtools/rdhscan/internal/model"
	"github.com/daqtools/rdhscan/internal/rdh"
)

// CDP is one common data page: a decoded header, its payload bytes, and the
// stream offset the page starts at. Pages from different links interleave in
// stream order; only intra-link ordering carries meaning.
type CDP struct {
	RDH     rdh.RDH
	Payload []byte
	Offset  uint64
}

// FindingSink receives the findings the scanner produces while recovering
// from malformed headers.
type FindingSink func(model.Finding)

// Scanner decodes pages from a capture, one at a time, with bounded memory:
// only the current page is held.
type Scanner struct {
	r       *bufio.Reader
	offset  uint64
	pages   uint64
	sink    FindingSink
	logger  *slog.Logger
	skipPay bool
	header  [rdh.HeaderBytes]byte
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithFindingSink routes recovery findings to the given sink. Without a
// sink the scanner treats every decode error as unrecoverable, because
// skipping bytes without recording a finding would discard them silently.
func WithFindingSink(sink FindingSink) Option {
	return func(s *Scanner) { s.sink = sink }
}

// WithLogger sets the logger for per-page trace output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) { s.logger = logger }
}

// WithSkipPayload makes the scanner discard payload bytes instead of
// retaining them. Header-only consumers avoid the allocation per page.
func WithSkipPayload(skip bool) Option {
	return func(s *Scanner) { s.skipPay = skip }
}

// NewScanner creates a Scanner reading pages from r.
func NewScanner(r io.Reader, opts ...Option) *Scanner {
	s := &Scanner{r: bufio.NewReaderSize(r, 1<<20)}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Offset returns the stream offset the next decode attempt starts at.
func (s *Scanner) Offset() uint64 { return s.offset }

// Pages returns the number of pages decoded so far.
func (s *Scanner) Pages() uint64 { return s.pages }

// Next decodes the next page. It returns io.EOF at a clean end of stream,
// a *DecodeError when a page is undecodable and the scanner cannot skip
// past it, and a *IOError on read failure. Recoverable malformed headers
// are reported through the finding sink and skipped internally, so callers
// only ever see pages or terminal errors.
func (s *Scanner) Next() (CDP, error) {
	for {
		start := s.offset
		if _, err := io.ReadFull(s.r, s.header[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return CDP{}, io.EOF
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return CDP{}, &DecodeError{Kind: KindTruncated, Offset: start, Err: errors.New("stream ends inside a header")}
			}
			return CDP{}, &IOError{Offset: start, Err: err}
		}
		s.offset += rdh.HeaderBytes

		h, err := rdh.Decode(s.header[:])
		if err != nil {
			if s.pages == 0 || s.sink == nil {
				// Nothing decoded yet means nothing to resynchronize
				// from: the failure is terminal.
				return CDP{}, s.decodeError(start, err)
			}
			if skipErr := s.resync(h, start, err); skipErr != nil {
				return CDP{}, skipErr
			}
			continue
		}

		payloadSize := h.PayloadSize()
		var payload []byte
		if s.skipPay {
			if err := s.discard(payloadSize, start); err != nil {
				return CDP{}, err
			}
		} else {
			payload = make([]byte, payloadSize)
			if _, err := io.ReadFull(s.r, payload); err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
					return CDP{}, &DecodeError{
						Kind:   KindTruncated,
						Offset: start,
						Err:    fmt.Errorf("stream ends inside a %d byte payload", payloadSize),
					}
				}
				return CDP{}, &IOError{Offset: s.offset, Err: err}
			}
		}
		s.offset += uint64(payloadSize)
		s.pages++

		s.logger.Debug("loaded RDH",
			"offset", start,
			"link", h.LinkID,
			"version", h.Version,
			"memory_size", h.MemorySize,
			"stop", h.StopSet(),
		)
		return CDP{RDH: h, Payload: payload, Offset: start}, nil
	}
}

// decodeError maps an rdh decode failure to the terminal error taxonomy.
func (s *Scanner) decodeError(offset uint64, err error) error {
	kind := KindMalformedHeader
	if errors.Is(err, rdh.ErrUnsupportedVersion) {
		kind = KindUnsupportedVersion
	}
	return &DecodeError{Kind: kind, Offset: offset, Err: err}
}

// resync records a finding for an undecodable header and skips the extent
// the header declared for itself. When the declared extent cannot place a
// header behind it, there is no boundary to resynchronize at and the error
// becomes terminal.
func (s *Scanner) resync(h rdh.RDH, offset uint64, cause error) error {
	code := model.CodeMalformedHeader
	if errors.Is(cause, rdh.ErrUnsupportedVersion) {
		code = model.CodeUnsupportedVersion
	}
	s.sink(model.NewFinding(code, int(h.LinkID), offset, cause.Error()))

	if h.OffsetNext < rdh.HeaderBytes {
		return &DecodeError{
			Kind:   KindMalformedHeader,
			Offset: offset,
			Err:    fmt.Errorf("cannot resynchronize: declared extent %d (%v)", h.OffsetNext, cause),
		}
	}

	skip := int(h.OffsetNext) - rdh.HeaderBytes
	s.logger.Warn("skipping malformed page",
		"offset", offset,
		"skip_bytes", skip,
	)
	if err := s.discard(skip, offset); err != nil {
		return err
	}
	s.offset += uint64(skip)
	return nil
}

// discard drops n payload bytes, classifying a premature end as truncation.
func (s *Scanner) discard(n int, pageStart uint64) error {
	if n == 0 {
		return nil
	}
	discarded, err := s.r.Discard(n)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &DecodeError{
				Kind:   KindTruncated,
				Offset: pageStart,
				Err:    fmt.Errorf("stream ends %d bytes into a %d byte extent", discarded, n),
			}
		}
		return &IOError{Offset: s.offset + uint64(discarded), Err: err}
	}
	return nil
}

// Run pumps pages into out until end of stream, terminal error, or context
// cancellation. The channel provides the backpressure between decoding and
// rule evaluation; Run never buffers pages itself. The channel is closed on
// return.
func (s *Scanner) Run(ctx context.Context, out chan<- CDP) error {
	defer close(out)
	for {
		cdp, err := s.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		select {
		case out <- cdp:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
