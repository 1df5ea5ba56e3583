package s330

import (
	"fmt"
	"strings"
)

// ToneDataSize is the wire size of one tone record: 8 name bytes, 12
// parameter bytes, then the TVF and TVA envelopes.
const ToneDataSize = toneNameLen + toneParamCount + 2*envelopeDataSize

const (
	toneNameLen    = 8
	toneParamCount = 12
)

// Tone is a single playable timbre. Patches reference tones by index
// through their key-zone maps.
type Tone struct {
	Name string

	OutputLevel  int // 0-127
	OriginalKey  int // 12-120, the key the sample was recorded at
	FineTune     int // 14-114, 64 = no detune
	CoarseTune   int // 16-112, 64 = no transpose
	FilterCutoff int // 0-127
	Resonance    int // 0-127
	LFORate      int // 0-127
	LFODepth     int // 0-127
	LFODelay     int // 0-127
	BenderSwitch int // 0-1
	LevelCurve   int // 0-3
	LoopMode     int // 0-2

	TVF Envelope
	TVA Envelope
}

// toneParams is the wire layout of the parameter block, in order,
// with hardware-verified ranges and the default substituted for a
// corrupt byte.
var toneParams = []struct {
	name          string
	min, max, def int
}{
	{"outputLevel", 0, 127, 100},
	{"originalKey", MinKey, MaxKey, 60},
	{"fineTune", 14, 114, 64},
	{"coarseTune", 16, 112, 64},
	{"filterCutoff", 0, 127, 127},
	{"resonance", 0, 127, 0},
	{"lfoRate", 0, 127, 0},
	{"lfoDepth", 0, 127, 0},
	{"lfoDelay", 0, 127, 0},
	{"benderSwitch", 0, 1, 1},
	{"levelCurve", 0, 3, 0},
	{"loopMode", 0, 2, 0},
}

func (t *Tone) paramFields() []*int {
	return []*int{
		&t.OutputLevel, &t.OriginalKey, &t.FineTune, &t.CoarseTune,
		&t.FilterCutoff, &t.Resonance, &t.LFORate, &t.LFODepth,
		&t.LFODelay, &t.BenderSwitch, &t.LevelCurve, &t.LoopMode,
	}
}

// DecodeTone decodes the wire layout of a tone record. Out-of-range
// bytes are replaced by their documented defaults; each substitution
// is reported as a ClampEvent so strict callers can reject the
// record.
func DecodeTone(data []byte) (*Tone, []ClampEvent, error) {
	if len(data) != ToneDataSize {
		return nil, nil, fmt.Errorf("tone record is %d bytes, want %d", len(data), ToneDataSize)
	}
	var clamps []ClampEvent
	t := &Tone{Name: decodeName(data[:toneNameLen])}
	for i, f := range t.paramFields() {
		p := toneParams[i]
		*f = decodeByte(data[toneNameLen+i], p.min, p.max, p.def, p.name, &clamps)
	}
	envs := data[toneNameLen+toneParamCount:]
	t.TVF = decodeEnvelope(envs[:envelopeDataSize], "tvf", &clamps)
	t.TVA = decodeEnvelope(envs[envelopeDataSize:], "tva", &clamps)
	return t, clamps, nil
}

// Encode returns the wire layout of the tone. Fields are clamped into
// their valid ranges on the way out.
func (t *Tone) Encode() []byte {
	data := make([]byte, 0, ToneDataSize)
	data = append(data, encodeName(t.Name, toneNameLen)...)
	for i, f := range t.paramFields() {
		p := toneParams[i]
		data = append(data, byte(clamp(*f, p.min, p.max)))
	}
	data = appendEnvelope(data, t.TVF)
	data = appendEnvelope(data, t.TVA)
	return data
}

// decodeName decodes a space-padded ASCII name field. Bytes outside
// printable 7-bit ASCII decode as spaces.
func decodeName(data []byte) string {
	name := make([]byte, len(data))
	for i, b := range data {
		if b < 0x20 || b > 0x7e {
			b = ' '
		}
		name[i] = b
	}
	return strings.TrimRight(string(name), " ")
}

func encodeName(name string, size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = ' '
	}
	for i := 0; i < len(name) && i < size; i++ {
		b := name[i]
		if b < 0x20 || b > 0x7e {
			b = ' '
		}
		data[i] = b
	}
	return data
}
