package its

import (
	"testing"

	"github.com/daqtools/rdhscan/internal/rdh"
)

// TestIdentify tests word classification by identifier byte.
func TestIdentify(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		word     []byte
		expected WordType
	}{
		{"IHW", BuildIHW(0x7F), WordIHW},
		{"TDH", BuildTDH(TDH{TriggerType: 0x603}), WordTDH},
		{"TDT", BuildTDT(true), WordTDT},
		{"DDW0", BuildDDW0(), WordDDW0},
		{"data word", BuildData(0xAB), WordData},
		{"short tail", []byte{0x01, 0x02}, WordData},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Identify(tc.word); got != tc.expected {
				t.Errorf("got %v, expected %v", got, tc.expected)
			}
		})
	}
}

// TestTDHRoundTrip verifies TDH field packing.
func TestTDHRoundTrip(t *testing.T) {
	t.Parallel()

	in := TDH{
		TriggerType:     0x603,
		InternalTrigger: true,
		Continuation:    true,
		BC:              1234,
		Orbit:           0x0B7DD575,
	}
	got := DecodeTDH(BuildTDH(in))
	if got != in {
		t.Errorf("got %+v, expected %+v", got, in)
	}
}

// TestTDTStopFlag verifies the packet-done flag drives frame closing.
func TestTDTStopFlag(t *testing.T) {
	t.Parallel()

	if !DecodeTDT(BuildTDT(true)).PacketDone {
		t.Error("packet-done TDT decoded without stop flag")
	}
	if DecodeTDT(BuildTDT(false)).PacketDone {
		t.Error("non-stop TDT decoded with stop flag")
	}
}

// TestSanityProblems verifies reserved-bit checks per word type.
func TestSanityProblems(t *testing.T) {
	t.Parallel()

	t.Run("clean words", func(t *testing.T) {
		t.Parallel()
		for _, word := range [][]byte{BuildIHW(0x1FF), BuildTDH(TDH{}), BuildTDT(true), BuildDDW0()} {
			word := word
			if problems := SanityProblems(word); problems != nil {
				t.Errorf("word id 0x%X: got %v, expected none", word[WordBytes-1], problems)
			}
		}
	})

	t.Run("IHW reserved bits", func(t *testing.T) {
		t.Parallel()
		word := BuildIHW(0x1FF)
		word[5] = 0xFF
		if problems := SanityProblems(word); len(problems) != 1 {
			t.Errorf("got %v, expected one problem", problems)
		}
	})

	t.Run("DDW index nibble", func(t *testing.T) {
		t.Parallel()
		word := BuildDDW0()
		word[8] |= 0x10
		if problems := SanityProblems(word); len(problems) != 1 {
			t.Errorf("got %v, expected one problem", problems)
		}
	})
}

// TestWalk tests payload walking in both data formats.
func TestWalk(t *testing.T) {
	t.Parallel()

	words := [][]byte{BuildIHW(0x7F), BuildTDH(TDH{}), BuildData(1), BuildTDT(true)}

	testCases := []struct {
		name       string
		dataFormat uint8
	}{
		{"padded format", rdh.DataFormatPadded},
		{"packed format", rdh.DataFormatPacked},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			payload := Payload(tc.dataFormat, words...)

			var seen []WordType
			rest := Walk(payload, tc.dataFormat, func(word []byte) {
				seen = append(seen, Identify(word))
			})

			if rest != 0 {
				t.Errorf("got %d trailing bytes, expected 0", rest)
			}
			expected := []WordType{WordIHW, WordTDH, WordData, WordTDT}
			if len(seen) != len(expected) {
				t.Fatalf("got %d words, expected %d", len(seen), len(expected))
			}
			for i := range expected {
				if seen[i] != expected[i] {
					t.Errorf("word %d: got %v, expected %v", i, seen[i], expected[i])
				}
			}
		})
	}
}

// TestWalkTrailingBytes verifies that a payload not ending on a word
// boundary reports the leftover bytes.
func TestWalkTrailingBytes(t *testing.T) {
	t.Parallel()

	payload := append(BuildTDT(true), 0x01, 0x02, 0x03)
	rest := Walk(payload, rdh.DataFormatPacked, func([]byte) {})
	if rest != 3 {
		t.Errorf("got %d trailing bytes, expected 3", rest)
	}
}
