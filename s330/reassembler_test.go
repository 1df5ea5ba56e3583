package s330

import (
	"bytes"
	"testing"
)

func collectFrames(frames *[][]byte) *Reassembler {
	return NewReassembler(func(frame []byte) {
		*frames = append(*frames, frame)
	})
}

func TestReassemblerSingleChunk(t *testing.T) {
	frame := DataSet(0, patchBase, 1, 2, 3)
	var got [][]byte
	r := collectFrames(&got)
	r.Feed(frame)
	if len(got) != 1 || !bytes.Equal(got[0], frame) {
		t.Fatalf("got %d frames (%x), want the original", len(got), got)
	}
}

// Splitting a frame at every possible pair of boundaries must always
// reassemble to exactly one copy of the original.
func TestReassemblerArbitraryPartitions(t *testing.T) {
	frame := DataSet(0, toneBase+toneStride, 0x10, 0x20, 0x30, 0x40, 0x50)
	for i := 1; i < len(frame); i++ {
		for j := i; j < len(frame); j++ {
			var got [][]byte
			r := collectFrames(&got)
			r.Feed(frame[:i])
			r.Feed(frame[i:j])
			r.Feed(frame[j:])
			if len(got) != 1 {
				t.Fatalf("split at %d,%d: got %d frames, want 1", i, j, len(got))
			}
			if !bytes.Equal(got[0], frame) {
				t.Fatalf("split at %d,%d: reassembled %x, want %x", i, j, got[0], frame)
			}
		}
	}
}

func TestReassemblerByteAtATime(t *testing.T) {
	frame := DataSet(3, patchBase+patchStride, 0x7f)
	var got [][]byte
	r := collectFrames(&got)
	for i := range frame {
		r.Feed(frame[i : i+1])
	}
	if len(got) != 1 || !bytes.Equal(got[0], frame) {
		t.Fatalf("got %v, want one copy of the original", got)
	}
}

func TestReassemblerIgnoresNonSysExWhileIdle(t *testing.T) {
	var got [][]byte
	r := collectFrames(&got)
	r.Feed([]byte{0x90, 0x40, 0x7f}) // note on
	r.Feed([]byte{0xfe})             // active sensing
	if len(got) != 0 {
		t.Fatalf("emitted %d frames from non-SysEx input", len(got))
	}
	frame := DataSet(0, functionBase+0x10, 0x40)
	r.Feed(frame)
	if len(got) != 1 || !bytes.Equal(got[0], frame) {
		t.Fatalf("frame after noise not reassembled: %x", got)
	}
}

// A fresh start marker mid-frame means the previous end marker was
// lost; the stale partial buffer must be dropped.
func TestReassemblerRestartsOnStartMarker(t *testing.T) {
	dropped := DataSet(0, patchBase, 1, 2, 3)
	kept := DataSet(0, toneBase, 9, 8, 7)
	var got [][]byte
	r := collectFrames(&got)
	r.Feed(dropped[:4]) // no end marker arrives for this one
	r.Feed(kept[:6])
	r.Feed(kept[6:])
	if len(got) != 1 {
		t.Fatalf("got %d frames, want 1", len(got))
	}
	if !bytes.Equal(got[0], kept) {
		t.Fatalf("reassembled %x, want the second frame %x", got[0], kept)
	}
}

func TestReassemblerBackToBackFrames(t *testing.T) {
	first := DataSet(0, patchBase, 1)
	second := DataSet(0, toneBase, 2)
	var got [][]byte
	r := collectFrames(&got)
	r.Feed(first[:5])
	r.Feed(first[5:])
	r.Feed(second)
	if len(got) != 2 {
		t.Fatalf("got %d frames, want 2", len(got))
	}
	if !bytes.Equal(got[0], first) || !bytes.Equal(got[1], second) {
		t.Fatalf("frames out of order or corrupted: %x", got)
	}
}

func TestReassemblerMaxFrameSize(t *testing.T) {
	var got [][]byte
	r := collectFrames(&got)
	r.SetMaxFrameSize(16)
	big := DataSet(0, patchBase, make([]byte, 32)...)
	r.Feed(big[:6])
	r.Feed(big[6:16]) // exceeds the cap, partial frame fails
	r.Feed(big[16:])
	if len(got) != 0 {
		t.Fatalf("oversized frame emitted: %x", got)
	}
	small := DataSet(0, patchBase, 1)
	r.Feed(small)
	if len(got) != 1 || !bytes.Equal(got[0], small) {
		t.Fatalf("reassembler did not recover after oversize: %x", got)
	}
}
