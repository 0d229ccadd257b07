package its

import "encoding/binary"

// Word builders for fixtures and synthetic stream generators. Like the RDH
// test data these live in the package proper so every package can assemble
// captures from the same canonical words.

// BuildIHW serializes an IHW with the given active-lane mask.
func BuildIHW(activeLanes uint32) []byte {
	word := make([]byte, WordBytes)
	binary.LittleEndian.PutUint32(word[0:4], activeLanes&0x0FFFFFFF)
	word[WordBytes-1] = IDIHW
	return word
}

// BuildTDH serializes a TDH.
func BuildTDH(t TDH) []byte {
	word := make([]byte, WordBytes)
	flags := t.TriggerType & 0x0FFF
	if t.InternalTrigger {
		flags |= 1 << 12
	}
	if t.NoData {
		flags |= 1 << 13
	}
	if t.Continuation {
		flags |= 1 << 14
	}
	binary.LittleEndian.PutUint16(word[0:2], flags)
	binary.LittleEndian.PutUint16(word[2:4], t.BC&0x0FFF)
	binary.LittleEndian.PutUint32(word[4:8], t.Orbit)
	word[WordBytes-1] = IDTDH
	return word
}

// BuildTDT serializes a TDT; packetDone is the frame stop flag.
func BuildTDT(packetDone bool) []byte {
	word := make([]byte, WordBytes)
	if packetDone {
		word[8] = 1
	}
	word[WordBytes-1] = IDTDT
	return word
}

// BuildDDW0 serializes a clean end-of-segment diagnostic word.
func BuildDDW0() []byte {
	word := make([]byte, WordBytes)
	word[WordBytes-1] = IDDDW0
	return word
}

// BuildData serializes a detector data word. The identifier byte is taken
// from the inner-barrel data range so it can never be mistaken for a status
// word.
func BuildData(seed byte) []byte {
	word := make([]byte, WordBytes)
	for i := 0; i < WordBytes-1; i++ {
		word[i] = seed + byte(i)
	}
	word[WordBytes-1] = 0x20
	return word
}

// Pad pads a word to the stride of the given data format. For the packed
// format the word is returned unchanged.
func Pad(word []byte, dataFormat uint8) []byte {
	stride := WordStride(dataFormat)
	if len(word) >= stride {
		return word
	}
	padded := make([]byte, stride)
	copy(padded, word)
	return padded
}

// Payload concatenates words into one payload in the given data format.
func Payload(dataFormat uint8, words ...[]byte) []byte {
	var out []byte
	for _, w := range words {
		out = append(out, Pad(w, dataFormat)...)
	}
	return out
}
