package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/daqtools/rdhscan/internal/its"
	"github.com/daqtools/rdhscan/internal/rdh"
	"github.com/daqtools/rdhscan/internal/report"
)

// capturePage serializes one page from a header and its payload words.
func capturePage(h rdh.RDH, words ...[]byte) []byte {
	payload := its.Payload(h.DataFormat, words...)
	h = rdh.WithPayload(h, len(payload))
	return append(h.Bytes(), payload...)
}

// writeCapture writes the concatenated pages to a file in a fresh temp
// directory and returns its path.
func writeCapture(t *testing.T, pages ...[]byte) string {
	t.Helper()

	var stream []byte
	for _, p := range pages {
		p := p
		stream = append(stream, p...)
	}
	path := filepath.Join(t.TempDir(), "capture.raw")
	if err := os.WriteFile(path, stream, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// cleanCapture builds a capture with one complete heartbeat frame followed
// by a stop page carrying the end-of-segment diagnostic word.
func cleanCapture(t *testing.T) string {
	t.Helper()

	open := capturePage(rdh.CorrectV7,
		its.BuildIHW(0x7F),
		its.BuildTDH(its.TDH{TriggerType: 0x608, Orbit: rdh.CorrectV7.Orbit}),
		its.BuildData(0x10),
		its.BuildTDT(true),
	)
	stop := rdh.WithStop(rdh.CorrectV7)
	stop.PacketCounter = 1
	closing := capturePage(stop, its.BuildDDW0())

	return writeCapture(t, open, closing)
}

// defectiveCapture builds a capture whose only payload word is an orphan
// data word, which every profile reports as an error.
func defectiveCapture(t *testing.T) string {
	t.Helper()
	return writeCapture(t, capturePage(rdh.CorrectV7, its.BuildData(0x10)))
}

// runRoot executes the CLI with the given arguments.
func runRoot(t *testing.T, args ...string) error {
	t.Helper()

	cmd := NewRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

// exitCodeOf extracts the exit code a CLI error maps to.
func exitCodeOf(t *testing.T, err error) int {
	t.Helper()

	if err == nil {
		return exitOK
	}
	var ee *exitError
	if !errors.As(err, &ee) {
		t.Fatalf("expected an exit error, got %v", err)
	}
	return ee.code
}

// TestCheckCleanCapture verifies a well-formed capture passes under every
// profile, with and without the payload word checks.
func TestCheckCleanCapture(t *testing.T) {
	t.Parallel()

	capture := cleanCapture(t)

	testCases := []struct {
		name string
		args []string
	}{
		{name: "sanity", args: []string{"check", "sanity", capture}},
		{name: "all", args: []string{"check", "all", capture}},
		{name: "all its", args: []string{"check", "all", "its", capture}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := runRoot(t, tc.args...); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// TestCheckDefectiveCapture verifies error findings map to the findings
// exit code.
func TestCheckDefectiveCapture(t *testing.T) {
	t.Parallel()

	err := runRoot(t, "check", "sanity", defectiveCapture(t))
	if got := exitCodeOf(t, err); got != exitFindings {
		t.Errorf("got exit code %d, expected %d", got, exitFindings)
	}
}

// TestCheckTruncatedCapture verifies a stream ending inside a header maps
// to the fatal exit code.
func TestCheckTruncatedCapture(t *testing.T) {
	t.Parallel()

	full := capturePage(rdh.CorrectV7)
	capture := writeCapture(t, full, full[:40])

	err := runRoot(t, "check", "sanity", capture)
	if got := exitCodeOf(t, err); got != exitFatal {
		t.Errorf("got exit code %d, expected %d", got, exitFatal)
	}
}

// TestCheckUsageErrors tests runs that never start.
func TestCheckUsageErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing capture", func(t *testing.T) {
		t.Parallel()
		err := runRoot(t, "check", "sanity", filepath.Join(t.TempDir(), "absent.raw"))
		if got := exitCodeOf(t, err); got != exitUsage {
			t.Errorf("got exit code %d, expected %d", got, exitUsage)
		}
	})

	t.Run("conflicting report formats", func(t *testing.T) {
		t.Parallel()
		err := runRoot(t, "check", "sanity", "--json", "--markdown", cleanCapture(t))
		if got := exitCodeOf(t, err); got != exitUsage {
			t.Errorf("got exit code %d, expected %d", got, exitUsage)
		}
	})

	t.Run("unknown target", func(t *testing.T) {
		t.Parallel()
		err := runRoot(t, "check", "sanity", "tpc", cleanCapture(t))
		if got := exitCodeOf(t, err); got != exitUsage {
			t.Errorf("got exit code %d, expected %d", got, exitUsage)
		}
	})

	t.Run("explicit checks file missing", func(t *testing.T) {
		t.Parallel()
		err := runRoot(t, "check", "all", "-c", filepath.Join(t.TempDir(), "absent.yaml"), cleanCapture(t))
		if got := exitCodeOf(t, err); got != exitUsage {
			t.Errorf("got exit code %d, expected %d", got, exitUsage)
		}
	})
}

// TestCheckJSONReportFile verifies the report file destination and the JSON
// envelope.
func TestCheckJSONReportFile(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "reports", "run.json")
	if err := runRoot(t, "check", "all", "--json", "-o", out, cleanCapture(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(out) //nolint:gosec // Test-owned temp path
	if err != nil {
		t.Fatalf("report file not written: %v", err)
	}

	var envelope report.JSONReport
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("report file is not valid JSON: %v", err)
	}
	if !envelope.Success {
		t.Error("expected a successful run")
	}
	if envelope.Report == nil || envelope.Report.TotalPages != 2 {
		t.Errorf("unexpected report payload: %+v", envelope.Report)
	}
}

// TestCheckExpectationsFromFile verifies the checks file feeds the
// end-of-run counter comparisons.
func TestCheckExpectationsFromFile(t *testing.T) {
	t.Parallel()

	checksPath := filepath.Join(t.TempDir(), "checks.yaml")
	if err := os.WriteFile(checksPath, []byte("checks:\n  pages: 99\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	err := runRoot(t, "check", "all", "-c", checksPath, cleanCapture(t))
	if got := exitCodeOf(t, err); got != exitFindings {
		t.Errorf("got exit code %d, expected %d", got, exitFindings)
	}
}

// TestCheckDatabaseExport verifies the report lands in the SQLite database.
func TestCheckDatabaseExport(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "reports.db")
	if err := runRoot(t, "check", "sanity", "--output-db", dbPath, cleanCapture(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database not created: %v", err)
	}
}

// TestCheckFilterLink verifies a filtered run still succeeds when the kept
// link is clean.
func TestCheckFilterLink(t *testing.T) {
	t.Parallel()

	// Link 3 carries an orphan data word; link 0 is clean.
	clean := capturePage(rdh.CorrectV7,
		its.BuildIHW(0x7F),
		its.BuildTDH(its.TDH{TriggerType: 0x608, Orbit: rdh.CorrectV7.Orbit}),
		its.BuildTDT(true),
	)
	dirty := capturePage(rdh.WithLink(rdh.CorrectV7, 3), its.BuildData(0x10))
	capture := writeCapture(t, clean, dirty)

	if err := runRoot(t, "check", "sanity", "-f", "0", capture); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := runRoot(t, "check", "sanity", "-f", "3", capture)
	if got := exitCodeOf(t, err); got != exitFindings {
		t.Errorf("got exit code %d, expected %d", got, exitFindings)
	}
}
