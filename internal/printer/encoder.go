package printer

// ESC/POS byte sequences. These are fixed by the protocol and must match the
// printer firmware exactly.
var (
	cmdReset        = []byte{0x1B, 0x40}       // ESC @
	cmdNormalText   = []byte{0x1B, 0x21, 0x00} // ESC ! 0
	cmdLineSpacing  = []byte{0x1B, 0x33, 0x18} // ESC 3 24
	cmdCharsetPC437 = []byte{0x1B, 0x74, 0x00} // ESC t 0
	cmdMultiFeed    = []byte{0x0A, 0x0A, 0x0A, 0x0A}
	cmdFullCut      = []byte{0x1D, 0x56, 0x00} // GS V 0
)

// FrameKind tags a frame with its role in the plan.
type FrameKind int

const (
	FrameReset FrameKind = iota
	FrameFormat
	FrameCharset
	FramePayload
	FrameFeed
	FrameCut
)

func (k FrameKind) String() string {
	switch k {
	case FrameReset:
		return "reset"
	case FrameFormat:
		return "format"
	case FrameCharset:
		return "charset"
	case FramePayload:
		return "payload"
	case FrameFeed:
		return "feed"
	case FrameCut:
		return "cut"
	default:
		return "unknown"
	}
}

// Frame is one command or payload chunk, sent as a single bulk transfer.
type Frame struct {
	Kind FrameKind
	Data []byte
}

// Variant selects per-model encoding quirks.
type Variant int

const (
	// VariantGeneric covers most ESC/POS boards: 64-byte chunks plus an
	// explicit charset selection.
	VariantGeneric Variant = iota
	// VariantNarrow covers printers with small receive buffers: 32-byte
	// chunks, no charset frame.
	VariantNarrow
)

// ChunkSize is the payload chunk size for the variant. Chunking exists because
// printer receive buffers are small; one oversized bulk transfer risks
// truncation or timeout.
func (v Variant) ChunkSize() int {
	if v == VariantNarrow {
		return 32
	}
	return 64
}

// BuildPlan encodes text into an ordered frame sequence: reset, formatting,
// charset (generic variant only), payload chunks, paper feed past the print
// head, cut. The plan is built in full before any byte is transmitted and is
// never mutated afterwards.
//
// Chunking is byte-level: a chunk boundary may fall inside a multi-byte
// character. Known limitation; the printer reassembles the buffer before
// rendering, so output is unaffected on working links.
func BuildPlan(text string, variant Variant) []Frame {
	plan := []Frame{
		{Kind: FrameReset, Data: cmdReset},
		{Kind: FrameFormat, Data: cmdNormalText},
	}
	if variant == VariantGeneric {
		plan = append(plan, Frame{Kind: FrameCharset, Data: cmdCharsetPC437})
	}

	payload := []byte(text)
	size := variant.ChunkSize()
	for len(payload) > 0 {
		n := size
		if n > len(payload) {
			n = len(payload)
		}
		plan = append(plan, Frame{Kind: FramePayload, Data: payload[:n]})
		payload = payload[n:]
	}

	plan = append(plan,
		Frame{Kind: FrameFeed, Data: cmdMultiFeed},
		Frame{Kind: FrameCut, Data: cmdFullCut},
	)
	return plan
}

// PlanBytes concatenates the plan, in order, into the exact byte stream the
// printer receives. Serial transports replay this directly.
func PlanBytes(plan []Frame) []byte {
	var total int
	for _, f := range plan {
		total += len(f.Data)
	}
	out := make([]byte, 0, total)
	for _, f := range plan {
		out = append(out, f.Data...)
	}
	return out
}
