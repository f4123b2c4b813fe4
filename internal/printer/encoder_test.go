package printer

import (
	"bytes"
	"strings"
	"testing"
)

func kinds(plan []Frame) []FrameKind {
	out := make([]FrameKind, len(plan))
	for i, f := range plan {
		out[i] = f.Kind
	}
	return out
}

func payloadBytes(plan []Frame) []byte {
	var out []byte
	for _, f := range plan {
		if f.Kind == FramePayload {
			out = append(out, f.Data...)
		}
	}
	return out
}

func TestBuildPlan_GenericStructure(t *testing.T) {
	plan := BuildPlan("hola", VariantGeneric)

	want := []FrameKind{FrameReset, FrameFormat, FrameCharset, FramePayload, FrameFeed, FrameCut}
	got := kinds(plan)
	if len(got) != len(want) {
		t.Fatalf("expected %d frames, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestBuildPlan_NarrowSkipsCharset(t *testing.T) {
	plan := BuildPlan("hola", VariantNarrow)

	for _, f := range plan {
		if f.Kind == FrameCharset {
			t.Error("narrow variant must not include a charset frame")
		}
	}
}

func TestBuildPlan_WireConstants(t *testing.T) {
	plan := BuildPlan("", VariantGeneric)

	wantData := map[FrameKind][]byte{
		FrameReset:   {0x1B, 0x40},
		FrameFormat:  {0x1B, 0x21, 0x00},
		FrameCharset: {0x1B, 0x74, 0x00},
		FrameFeed:    {0x0A, 0x0A, 0x0A, 0x0A},
		FrameCut:     {0x1D, 0x56, 0x00},
	}

	for _, f := range plan {
		want, ok := wantData[f.Kind]
		if !ok {
			t.Fatalf("unexpected frame kind %v for empty payload", f.Kind)
		}
		if !bytes.Equal(f.Data, want) {
			t.Errorf("%v frame: expected % X, got % X", f.Kind, want, f.Data)
		}
	}
}

func TestBuildPlan_Chunking(t *testing.T) {
	tests := []struct {
		name       string
		variant    Variant
		payloadLen int
		wantChunks int
	}{
		{"generic empty", VariantGeneric, 0, 0},
		{"generic one byte", VariantGeneric, 1, 1},
		{"generic exact chunk", VariantGeneric, 64, 1},
		{"generic chunk plus one", VariantGeneric, 65, 2},
		{"generic several", VariantGeneric, 200, 4},
		{"narrow exact chunk", VariantNarrow, 32, 1},
		{"narrow chunk plus one", VariantNarrow, 33, 2},
		{"narrow several", VariantNarrow, 100, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := strings.Repeat("a", tt.payloadLen)
			plan := BuildPlan(text, tt.variant)

			var chunks int
			for _, f := range plan {
				if f.Kind != FramePayload {
					continue
				}
				chunks++
				if len(f.Data) > tt.variant.ChunkSize() {
					t.Errorf("chunk of %d bytes exceeds chunk size %d", len(f.Data), tt.variant.ChunkSize())
				}
			}
			if chunks != tt.wantChunks {
				t.Errorf("expected %d chunks, got %d", tt.wantChunks, chunks)
			}

			if got := payloadBytes(plan); string(got) != text {
				t.Errorf("chunked payload does not round-trip: got %d bytes, want %d", len(got), len(text))
			}
		})
	}
}

func TestBuildPlan_PayloadRoundTrip(t *testing.T) {
	// Multi-byte characters chunk at byte level; the bytes still round-trip.
	text := strings.Repeat("ñ", 50)
	plan := BuildPlan(text, VariantNarrow)

	if got := payloadBytes(plan); string(got) != text {
		t.Error("payload bytes must survive chunking unchanged")
	}
}

func TestPlanBytes_Order(t *testing.T) {
	plan := BuildPlan("abc", VariantGeneric)

	var want []byte
	for _, f := range plan {
		want = append(want, f.Data...)
	}

	if !bytes.Equal(PlanBytes(plan), want) {
		t.Error("PlanBytes must concatenate frames in plan order")
	}
}

func TestPlanBytes_TotalLength(t *testing.T) {
	// Fixed overhead: reset 2 + format 3 + charset 3 + feed 4 + cut 3.
	plan := BuildPlan(strings.Repeat("x", 130), VariantGeneric)

	want := 15 + 130
	if got := len(PlanBytes(plan)); got != want {
		t.Errorf("expected %d plan bytes, got %d", want, got)
	}
}
