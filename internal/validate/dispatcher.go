package validate

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/daqtools/rdhscan/internal/model"
	"github.com/daqtools/rdhscan/internal/rdh"
	"github.com/daqtools/rdhscan/internal/stream"
)

// workerBuffer is the per-link channel depth. Deep enough to absorb bursts
// of consecutive pages on one link, shallow enough to keep memory bounded
// with many links.
const workerBuffer = 64

// ErrErrorLimit is returned by Dispatcher.Run when the configured error
// limit stopped the run before the end of the stream.
var ErrErrorLimit = errors.New("error limit reached")

// FilterNone disables link filtering.
const FilterNone = -1

// Dispatcher demultiplexes the page stream onto per-link validators.
//
// Design decision: Workers are created lazily on the first page of each
// link because:
// 1. Link ids are sparse (0-255) and most captures carry a handful
// 2. The first page of the stream must be seen before any validator exists,
//    since it fixes the expected header version for the whole run
// 3. An idle goroutine per possible link would dwarf the actual work
type Dispatcher struct {
	sink          Sink
	profile       model.Profile
	itsChecks     bool
	filterLink    int
	triggerPeriod uint32
	limitReached  func() bool
	onFirstPage   func(rdh.RDH)

	expectVersion uint8
	workers       map[uint8]chan stream.CDP
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithFilterLink restricts validation to one link id; other pages are
// counted as filtered and dropped.
func WithFilterLink(link int) DispatcherOption {
	return func(d *Dispatcher) { d.filterLink = link }
}

// WithITSChecks enables the payload word field checks on every validator.
func WithITSChecks(enabled bool) DispatcherOption {
	return func(d *Dispatcher) { d.itsChecks = enabled }
}

// WithTriggerPeriod sets the expected trigger spacing in bunch crossings.
func WithTriggerPeriod(period uint32) DispatcherOption {
	return func(d *Dispatcher) { d.triggerPeriod = period }
}

// WithErrorLimit installs a predicate polled once per page; when it reports
// true the dispatcher stops consuming and Run returns ErrErrorLimit.
func WithErrorLimit(reached func() bool) DispatcherOption {
	return func(d *Dispatcher) { d.limitReached = reached }
}

// WithFirstPageHook installs a callback invoked once with the first decoded
// header of the stream, before any validator runs.
func WithFirstPageHook(fn func(rdh.RDH)) DispatcherOption {
	return func(d *Dispatcher) { d.onFirstPage = fn }
}

// NewDispatcher creates a dispatcher reporting through sink.
func NewDispatcher(sink Sink, profile model.Profile, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sink:       sink,
		profile:    profile,
		filterLink: FilterNone,
		workers:    make(map[uint8]chan stream.CDP),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run consumes pages from in until the channel closes, the context is
// canceled, or the error limit trips. It always drains and joins every
// worker before returning, so the sink sees no further events after Run.
func (d *Dispatcher) Run(ctx context.Context, in <-chan stream.CDP) error {
	group := new(errgroup.Group)
	seenFirst := false
	var runErr error

receive:
	for {
		var cdp stream.CDP
		var ok bool
		select {
		case cdp, ok = <-in:
			if !ok {
				break receive
			}
		case <-ctx.Done():
			runErr = ctx.Err()
			break receive
		}

		if !seenFirst {
			seenFirst = true
			d.expectVersion = cdp.RDH.Version
			if d.onFirstPage != nil {
				d.onFirstPage(cdp.RDH)
			}
		}

		if d.limitReached != nil && d.limitReached() {
			runErr = ErrErrorLimit
			break receive
		}

		if d.filterLink != FilterNone && int(cdp.RDH.LinkID) != d.filterLink {
			d.sink.RecordFiltered()
			continue
		}

		select {
		case d.worker(group, cdp.RDH.LinkID) <- cdp:
		case <-ctx.Done():
			runErr = ctx.Err()
			break receive
		}
	}

	for _, ch := range d.workers {
		close(ch)
	}
	if err := group.Wait(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// worker returns the input channel of the validator for link, creating the
// validator and its goroutine on first use.
func (d *Dispatcher) worker(group *errgroup.Group, link uint8) chan<- stream.CDP {
	if ch, ok := d.workers[link]; ok {
		return ch
	}
	ch := make(chan stream.CDP, workerBuffer)
	d.workers[link] = ch

	v := NewLinkValidator(LinkConfig{
		Link:          int(link),
		Profile:       d.profile,
		ITSChecks:     d.itsChecks,
		ExpectVersion: d.expectVersion,
		TriggerPeriod: d.triggerPeriod,
	}, d.sink)

	group.Go(func() error {
		for p := range ch {
			v.Process(p)
		}
		v.Finish()
		return nil
	})
	return ch
}
