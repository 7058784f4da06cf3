package osc

const (
	slipEnd    = 0xC0
	slipEsc    = 0xDB
	slipEscEnd = 0xDC
	slipEscEsc = 0xDD
)

// SLIPEncode frames data with a leading and trailing END byte (OSC 1.1
// double-END framing).
func SLIPEncode(data []byte) []byte {
	out := make([]byte, 0, len(data)+2)
	out = append(out, slipEnd)
	for _, b := range data {
		switch b {
		case slipEnd:
			out = append(out, slipEsc, slipEscEnd)
		case slipEsc:
			out = append(out, slipEsc, slipEscEsc)
		default:
			out = append(out, b)
		}
	}
	return append(out, slipEnd)
}

func SLIPDecode(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == slipEsc && i+1 < len(data) {
			switch data[i+1] {
			case slipEscEnd:
				out = append(out, slipEnd)
			case slipEscEsc:
				out = append(out, slipEsc)
			}
			i++
			continue
		}
		out = append(out, data[i])
	}
	return out
}

// NextFrame pulls the first complete frame off the front of a stream buffer.
// Empty frames between back-to-back END bytes are skipped.
func NextFrame(data []byte) (frame, rest []byte, ok bool) {
	start := -1
	for i, b := range data {
		if b != slipEnd {
			continue
		}
		if start == -1 || i == start+1 {
			start = i
			continue
		}
		return SLIPDecode(data[start+1 : i]), data[i+1:], true
	}
	return nil, data, false
}
