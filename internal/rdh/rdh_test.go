package rdh

import (
	"errors"
	"testing"
)

// TestDecodeRoundTrip verifies that every decoded field survives a
// serialize/decode cycle for both supported versions.
func TestDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		header RDH
	}{
		{"v7", CorrectV7},
		{"v6", CorrectV6},
		{"v7 with payload and stop", WithStop(WithPayload(CorrectV7, 160))},
		{"v7 on link 9", WithLink(CorrectV7, 9)},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Decode(tc.header.Bytes())
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if got != tc.header {
				t.Errorf("got %+v, expected %+v", got, tc.header)
			}
		})
	}
}

// TestDecodeFailures verifies the decode error taxonomy.
func TestDecodeFailures(t *testing.T) {
	t.Parallel()

	t.Run("short buffer", func(t *testing.T) {
		t.Parallel()
		_, err := Decode(make([]byte, HeaderBytes-1))
		if !errors.Is(err, ErrShortBuffer) {
			t.Errorf("got %v, expected ErrShortBuffer", err)
		}
	})

	t.Run("unknown version", func(t *testing.T) {
		t.Parallel()
		h := CorrectV7
		h.Version = 5
		_, err := Decode(h.Bytes())
		if !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("got %v, expected ErrUnsupportedVersion", err)
		}
	})

	t.Run("wrong header size", func(t *testing.T) {
		t.Parallel()
		h := CorrectV7
		h.HeaderSize = 60
		_, err := Decode(h.Bytes())
		if !errors.Is(err, ErrHeaderSize) {
			t.Errorf("got %v, expected ErrHeaderSize", err)
		}
	})

	t.Run("malformed header still yields declared sizes", func(t *testing.T) {
		t.Parallel()
		h := WithPayload(CorrectV7, 320)
		h.HeaderSize = 60
		got, err := Decode(h.Bytes())
		if err == nil {
			t.Fatal("expected a decode error")
		}
		if got.OffsetNext != h.OffsetNext {
			t.Errorf("OffsetNext: got %d, expected %d", got.OffsetNext, h.OffsetNext)
		}
	})
}

// TestPayloadSize tests the payload size derivation, including the malformed
// memory-size case.
func TestPayloadSize(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		memorySize uint16
		expected   int
	}{
		{"no payload", 64, 0},
		{"one packed word", 74, 10},
		{"superpage", 8192, 8128},
		{"memory size below header", 32, 0},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h := CorrectV7
			h.MemorySize = tc.memorySize
			if got := h.PayloadSize(); got != tc.expected {
				t.Errorf("got %d, expected %d", got, tc.expected)
			}
		})
	}
}

// TestSanityProblems tests the per-field range checks.
func TestSanityProblems(t *testing.T) {
	t.Parallel()

	t.Run("sane header has no problems", func(t *testing.T) {
		t.Parallel()
		if problems := CorrectV7.SanityProblems(); problems != nil {
			t.Errorf("got %v, expected none", problems)
		}
	})

	t.Run("bad BC and data format", func(t *testing.T) {
		t.Parallel()
		h := CorrectV7
		h.BC = MaxBC
		h.DataFormat = 1
		problems := h.SanityProblems()
		if len(problems) != 2 {
			t.Errorf("got %d problems (%v), expected 2", len(problems), problems)
		}
	})

	t.Run("v6 ignores data format byte", func(t *testing.T) {
		t.Parallel()
		h := CorrectV6
		h.DataFormat = 1
		if problems := h.SanityProblems(); problems != nil {
			t.Errorf("got %v, expected none", problems)
		}
	})
}

// TestTriggerBits pins the rendering of trigger-type masks; the run summary
// shows this string next to the raw mask.
func TestTriggerBits(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		mask     uint32
		expected string
	}{
		{"continuous run start", 0x6A03, "ORBIT HB SOC TF RT RS"},
		{"physics trigger", 1 << 4, "PhT"},
		{"empty", 0, "none"},
		{"unknown high bits ignored", 1 << 31, "none"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := TriggerBits(tc.mask); got != tc.expected {
				t.Errorf("got %q, expected %q", got, tc.expected)
			}
		})
	}
}
