package s330

import (
	"bytes"
	"math/rand"
	"reflect"
	"testing"
)

func TestZonesFromMap(t *testing.T) {
	var m KeyZoneMap
	for i := range m {
		m[i] = LayerOff
	}
	for k := 24; k <= 48; k++ {
		m[k-MinKey] = 3
	}
	for k := 49; k <= 60; k++ {
		m[k-MinKey] = 7
	}
	for k := 80; k <= 80; k++ {
		m[k-MinKey] = 3
	}

	want := []Zone{
		{LowKey: 24, HighKey: 48, Tone: 3},
		{LowKey: 49, HighKey: 60, Tone: 7},
		{LowKey: 80, HighKey: 80, Tone: 3},
	}
	if got := m.Zones(LayerOff); !reflect.DeepEqual(got, want) {
		t.Fatalf("Zones = %v, want %v", got, want)
	}
}

func TestZonesAdjacentRunsStayDistinct(t *testing.T) {
	var m KeyZoneMap
	for i := range m {
		m[i] = LayerOff
	}
	// Two touching runs of different tones are two zones, not one.
	for k := MinKey; k <= 40; k++ {
		m[k-MinKey] = 1
	}
	for k := 41; k <= MaxKey; k++ {
		m[k-MinKey] = 2
	}
	got := m.Zones(LayerOff)
	want := []Zone{
		{LowKey: MinKey, HighKey: 40, Tone: 1},
		{LowKey: 41, HighKey: MaxKey, Tone: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Zones = %v, want %v", got, want)
	}
}

// SetZones(Zones(m)) must reproduce m exactly, for any map using the
// layer's sentinel.
func TestZoneCodecIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(109))
	for _, off := range []int{LayerOff, 0} {
		for trial := 0; trial < 200; trial++ {
			var m KeyZoneMap
			for i := range m {
				if rng.Intn(3) == 0 {
					m[i] = off
				} else {
					m[i] = rng.Intn(NumTones)
				}
			}
			var got KeyZoneMap
			got.SetZones(m.Zones(off), off)
			if got != m {
				t.Fatalf("off=%d trial %d: zone codec not lossless\n got %v\nwant %v", off, trial, got, m)
			}
		}
	}
}

func TestSetZonesLastWriteWins(t *testing.T) {
	var m KeyZoneMap
	m.SetZones([]Zone{
		{LowKey: 20, HighKey: 60, Tone: 1},
		{LowKey: 40, HighKey: 50, Tone: 2},
	}, LayerOff)
	for k := 20; k <= 60; k++ {
		want := 1
		if k >= 40 && k <= 50 {
			want = 2
		}
		if m[k-MinKey] != want {
			t.Fatalf("key %d = %d, want %d", k, m[k-MinKey], want)
		}
	}
	if m[19-MinKey] != LayerOff || m[61-MinKey] != LayerOff {
		t.Fatal("keys outside the zones are not the sentinel")
	}
}

func TestSetZonesClampsKeyRange(t *testing.T) {
	var m KeyZoneMap
	m.SetZones([]Zone{{LowKey: 0, HighKey: 200, Tone: 5}}, LayerOff)
	for i := range m {
		if m[i] != 5 {
			t.Fatalf("key %d = %d, want 5", MinKey+i, m[i])
		}
	}
}

func makePatch() *Patch {
	p := &Patch{
		Name:              "STRINGS 1",
		BendRange:         2,
		KeyMode:           1,
		OctaveShift:       3,
		OutputLevel:       100,
		Detune:            64,
		VelocityThreshold: 30,
		AftertouchSense:   64,
		AftertouchAssign:  1,
	}
	p.Layer1.SetZones([]Zone{
		{LowKey: MinKey, HighKey: 59, Tone: 4},
		{LowKey: 60, HighKey: MaxKey, Tone: 5},
	}, LayerOff)
	p.Layer2.SetZones([]Zone{
		{LowKey: 36, HighKey: 72, Tone: 9},
	}, 0)
	return p
}

func TestPatchRoundTrip(t *testing.T) {
	p := makePatch()
	data := p.Encode()
	if len(data) != PatchDataSize {
		t.Fatalf("encoded %d bytes, want %d", len(data), PatchDataSize)
	}
	got, clamps, err := DecodePatch(data)
	if err != nil {
		t.Fatalf("DecodePatch: %v", err)
	}
	if len(clamps) != 0 {
		t.Fatalf("valid patch produced clamp events: %v", clamps)
	}
	if !reflect.DeepEqual(got, p) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, p)
	}
}

func TestPatchDecodeDefaults(t *testing.T) {
	data := makePatch().Encode()
	data[patchNameLen] = 99                   // bendRange way out of range
	data[patchNameLen+patchParamCount] = 0x50 // layer-1 tone 80 does not exist

	p, clamps, err := DecodePatch(data)
	if err != nil {
		t.Fatalf("DecodePatch: %v", err)
	}
	if p.BendRange != 2 {
		t.Errorf("bendRange = %d, want default 2", p.BendRange)
	}
	if p.Layer1[0] != LayerOff {
		t.Errorf("layer1[0] = %d, want off sentinel", p.Layer1[0])
	}
	if len(clamps) != 2 {
		t.Errorf("got %d clamp events (%v), want 2", len(clamps), clamps)
	}
}

func TestPatchLayerSentinelsOnWire(t *testing.T) {
	p := makePatch()
	p.Layer1[0] = LayerOff
	p.Layer2[0] = 0
	data := p.Encode()
	maps := data[patchNameLen+patchParamCount:]
	if maps[0] != wireLayerOff {
		t.Errorf("layer-1 off encodes as 0x%02x, want 0x%02x", maps[0], wireLayerOff)
	}
	if maps[NumKeys] != 0 {
		t.Errorf("layer-2 silence encodes as 0x%02x, want 0", maps[NumKeys])
	}
}

func TestPatchDecodeWrongSize(t *testing.T) {
	if _, _, err := DecodePatch(make([]byte, 10)); err == nil {
		t.Fatal("short patch record accepted")
	}
}

func TestNameCodec(t *testing.T) {
	data := encodeName("PIANO", 12)
	if !bytes.Equal(data, []byte("PIANO       ")) {
		t.Fatalf("encodeName = %q", data)
	}
	if got := decodeName(data); got != "PIANO" {
		t.Fatalf("decodeName = %q, want PIANO", got)
	}
	// Non-printable bytes decode as spaces.
	if got := decodeName([]byte{0x01, 'A', 0xff}); got != " A" {
		t.Fatalf("decodeName = %q, want \" A\"", got)
	}
}
