package s330

import "fmt"

// Keyboard range covered by a key-zone map.
const (
	MinKey  = 12
	MaxKey  = 120
	NumKeys = MaxKey - MinKey + 1
)

// LayerOff is the in-memory layer-1 sentinel for a key with no tone
// assigned. Layer 2 has no off value of its own; tone 0 doubles as
// silence there, so its sentinel is 0.
const LayerOff = -1

// wireLayerOff is the layer-1 off sentinel on the wire.
const wireLayerOff = 0x7f

// PatchDataSize is the wire size of one patch record: 12 name bytes,
// 8 parameter bytes, then the two key-zone maps.
const PatchDataSize = patchNameLen + patchParamCount + 2*NumKeys

const (
	patchNameLen    = 12
	patchParamCount = 8
)

// KeyZoneMap is a dense per-key tone assignment for one layer,
// indexed by key-MinKey.
type KeyZoneMap [NumKeys]int

// Zone is a contiguous run of keys mapped to one tone.
type Zone struct {
	LowKey  int
	HighKey int
	Tone    int
}

// Zones coalesces maximal runs of identical non-sentinel entries into
// a zone list, scanning left to right. off is the layer's sentinel:
// LayerOff for layer 1, 0 for layer 2.
func (m *KeyZoneMap) Zones(off int) []Zone {
	var zones []Zone
	for i := 0; i < NumKeys; {
		tone := m[i]
		if tone == off {
			i++
			continue
		}
		j := i
		for j+1 < NumKeys && m[j+1] == tone {
			j++
		}
		zones = append(zones, Zone{LowKey: MinKey + i, HighKey: MinKey + j, Tone: tone})
		i = j + 1
	}
	return zones
}

// SetZones is the inverse of Zones: the map is reset to the sentinel
// and each zone's range written in order. Later zones override
// earlier ones on overlap; save/reload fidelity depends on that
// staying last-write-wins.
func (m *KeyZoneMap) SetZones(zones []Zone, off int) {
	for i := range m {
		m[i] = off
	}
	for _, z := range zones {
		lo := clamp(z.LowKey, MinKey, MaxKey)
		hi := clamp(z.HighKey, MinKey, MaxKey)
		for k := lo; k <= hi; k++ {
			m[k-MinKey] = z.Tone
		}
	}
}

// Patch is a keyboard setup: performance parameters plus two layers
// of key-to-tone assignments.
type Patch struct {
	Name string

	BendRange         int // 0-12 semitones
	KeyMode           int // 0-2: normal, split, dual
	OctaveShift       int // 0-6, 3 = no shift
	OutputLevel       int // 0-127
	Detune            int // 0-127, 64 = none
	VelocityThreshold int // 0-127
	AftertouchSense   int // 0-127
	AftertouchAssign  int // 0-3

	Layer1 KeyZoneMap
	Layer2 KeyZoneMap
}

var patchParams = []struct {
	name          string
	min, max, def int
}{
	{"bendRange", 0, 12, 2},
	{"keyMode", 0, 2, 0},
	{"octaveShift", 0, 6, 3},
	{"outputLevel", 0, 127, 100},
	{"detune", 0, 127, 64},
	{"velocityThreshold", 0, 127, 0},
	{"aftertouchSense", 0, 127, 0},
	{"aftertouchAssign", 0, 3, 0},
}

func (p *Patch) paramFields() []*int {
	return []*int{
		&p.BendRange, &p.KeyMode, &p.OctaveShift, &p.OutputLevel,
		&p.Detune, &p.VelocityThreshold, &p.AftertouchSense, &p.AftertouchAssign,
	}
}

// DecodePatch decodes the wire layout of a patch record. Out-of-range
// bytes decode to their documented defaults and are reported as
// ClampEvents.
func DecodePatch(data []byte) (*Patch, []ClampEvent, error) {
	if len(data) != PatchDataSize {
		return nil, nil, fmt.Errorf("patch record is %d bytes, want %d", len(data), PatchDataSize)
	}
	var clamps []ClampEvent
	p := &Patch{Name: decodeName(data[:patchNameLen])}
	for i, f := range p.paramFields() {
		pp := patchParams[i]
		*f = decodeByte(data[patchNameLen+i], pp.min, pp.max, pp.def, pp.name, &clamps)
	}
	maps := data[patchNameLen+patchParamCount:]
	decodeZoneMap(&p.Layer1, maps[:NumKeys], 1, &clamps)
	decodeZoneMap(&p.Layer2, maps[NumKeys:], 2, &clamps)
	return p, clamps, nil
}

// decodeZoneMap decodes one 109-byte layer. On the wire layer 1 uses
// 0x7f for off; layer 2 uses tone 0 as silence.
func decodeZoneMap(m *KeyZoneMap, data []byte, layer int, clamps *[]ClampEvent) {
	off := LayerOff
	if layer == 2 {
		off = 0
	}
	for i, b := range data {
		switch {
		case layer == 1 && b == wireLayerOff:
			m[i] = LayerOff
		case int(b) < NumTones:
			m[i] = int(b)
		default:
			*clamps = append(*clamps, ClampEvent{
				Field: fmt.Sprintf("layer%d[%d]", layer, i), Raw: int(b), Applied: off,
			})
			m[i] = off
		}
	}
}

// Encode returns the wire layout of the patch, clamping fields into
// range on the way out.
func (p *Patch) Encode() []byte {
	data := make([]byte, 0, PatchDataSize)
	data = append(data, encodeName(p.Name, patchNameLen)...)
	for i, f := range p.paramFields() {
		pp := patchParams[i]
		data = append(data, byte(clamp(*f, pp.min, pp.max)))
	}
	data = appendZoneMap(data, &p.Layer1, 1)
	data = appendZoneMap(data, &p.Layer2, 2)
	return data
}

func appendZoneMap(b []byte, m *KeyZoneMap, layer int) []byte {
	for _, tone := range m {
		switch {
		case layer == 1 && tone == LayerOff:
			b = append(b, wireLayerOff)
		case tone >= 0 && tone < NumTones:
			b = append(b, byte(tone))
		case layer == 1:
			b = append(b, wireLayerOff)
		default:
			b = append(b, 0)
		}
	}
	return b
}
