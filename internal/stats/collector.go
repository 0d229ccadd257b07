package stats

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/daqtools/rdhscan/internal/model"
	"github.com/daqtools/rdhscan/internal/rdh"
)

// Expectations are the configured end-of-run counter checks. A zero value
// disables the corresponding check.
type Expectations struct {
	// Pages is the expected total page count.
	Pages uint64

	// Triggers is the expected total trigger count.
	Triggers uint64
}

// Collector accumulates findings and counters during a run and finalizes
// them into a model.Report.
//
// Design decision: A mutex around plain counters, with the error limit on a
// separate atomic, rather than an event channel and a collector goroutine:
// 1. Recording is a few integer increments; the critical sections are tiny
// 2. The dispatcher already serializes shutdown, so no drain protocol needed
// 3. The limit flag is read on the hot path and must not take the lock
type Collector struct {
	mu      sync.Mutex
	report  *model.Report
	profile model.Profile

	maxErrors uint64
	errors    atomic.Uint64
	limited   atomic.Bool

	expect Expectations
}

// Option configures a Collector.
type Option func(*Collector)

// WithMaxErrors stops the run once n findings at error severity or above
// have been recorded. Zero means unlimited.
func WithMaxErrors(n uint64) Option {
	return func(c *Collector) { c.maxErrors = n }
}

// WithExpectations installs the end-of-run counter checks.
func WithExpectations(e Expectations) Option {
	return func(c *Collector) { c.expect = e }
}

// NewCollector creates a collector for one run over the given input.
func NewCollector(inputFile string, profile model.Profile, opts ...Option) *Collector {
	c := &Collector{report: model.NewReport(inputFile, profile), profile: profile}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ObserveStream records the stream-level metadata fixed by the first page.
func (c *Collector) ObserveStream(h rdh.RDH) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.Version = h.Version
	c.report.DataFormat = h.DataFormat
	c.report.TriggerType = h.TriggerType
}

// RecordFinding records one finding.
func (c *Collector) RecordFinding(f model.Finding) {
	c.mu.Lock()
	c.report.Findings = append(c.report.Findings, f)
	c.report.CodeCounts[f.Code]++
	if f.Link != model.NoLink && f.Severity >= model.SeverityError {
		c.link(f.Link).Errors++
	}
	c.mu.Unlock()

	if f.Severity >= model.SeverityError {
		n := c.errors.Add(1)
		if c.maxErrors > 0 && n >= c.maxErrors {
			c.limited.Store(true)
		}
	}
}

// RecordPage records one decoded page.
func (c *Collector) RecordPage(link int, payloadBytes uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.TotalPages++
	c.report.PayloadBytes += payloadBytes
	c.link(link).Pages++
}

// RecordFrame records one heartbeat frame.
func (c *Collector) RecordFrame(link int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.TotalHBFs++
	c.link(link).HBFs++
}

// RecordTrigger records one non-continuation trigger header.
func (c *Collector) RecordTrigger(link int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.TotalTriggers++
}

// RecordFiltered records a page dropped by the link filter.
func (c *Collector) RecordFiltered() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.FilteredPages++
}

// RecordFatal records the condition that ended the run early. Only the
// first fatal is kept; later ones are consequences of the same failure.
func (c *Collector) RecordFatal(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.report.Fatal == "" {
		c.report.Fatal = message
	}
}

// LimitReached reports whether the error limit has tripped. Safe to poll
// from any goroutine without blocking recorders.
func (c *Collector) LimitReached() bool {
	return c.limited.Load()
}

// link returns the stats of a link, creating them on first sight.
// Callers must hold the mutex.
func (c *Collector) link(id int) *model.LinkStats {
	ls, ok := c.report.Links[id]
	if !ok {
		ls = &model.LinkStats{}
		c.report.Links[id] = ls
	}
	return ls
}

// Finalize runs the end-of-run counter checks, sorts the findings by stream
// offset, and returns the completed report. The collector must not be used
// afterwards.
func (c *Collector) Finalize(elapsed time.Duration) *model.Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.report
	r.Elapsed = elapsed

	// Counter checks run against what was actually decoded, so a fatal or
	// limited run skips them: the totals would be short by construction.
	if r.Fatal == "" && !c.limited.Load() {
		c.checkExpectations()
	}

	sort.SliceStable(r.Findings, func(i, j int) bool {
		if r.Findings[i].Offset != r.Findings[j].Offset {
			return r.Findings[i].Offset < r.Findings[j].Offset
		}
		return r.Findings[i].Link < r.Findings[j].Link
	})
	return r
}

// checkExpectations compares the decoded totals against the configured
// expected counters. Callers must hold the mutex.
func (c *Collector) checkExpectations() {
	r := c.report
	record := func(code model.Code, message string) {
		if !c.profile.Includes(code.Info().Profile) {
			return
		}
		f := model.NewFinding(code, model.NoLink, 0, message)
		r.Findings = append(r.Findings, f)
		r.CodeCounts[f.Code]++
	}

	if c.expect.Pages > 0 && r.TotalPages != c.expect.Pages {
		record(model.CodePageCountMismatch,
			fmt.Sprintf("decoded %d pages, expected %d", r.TotalPages, c.expect.Pages))
	}
	if c.expect.Triggers > 0 && r.TotalTriggers != c.expect.Triggers {
		record(model.CodeTriggerCountMismatch,
			fmt.Sprintf("counted %d triggers, expected %d", r.TotalTriggers, c.expect.Triggers))
	}
}
