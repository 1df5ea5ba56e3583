package s330

import "fmt"

// EnvelopePoints is the number of breakpoints in a TVF/TVA envelope.
const EnvelopePoints = 8

const envelopeDataSize = EnvelopePoints*2 + 2

// Defaults substituted for out-of-range bytes on decode.
const (
	defaultLevel        = 0
	defaultRate         = 64
	defaultSustainPoint = 0
	defaultEndPoint     = EnvelopePoints
)

// Envelope is a multi-point breakpoint envelope. Levels are 0-127.
// Rates are 1-127, time-to-reach semantics; a rate of 0 does not
// exist on the hardware. Points at index >= EndPoint are inactive but
// keep their stored values.
//
// The invariant SustainPoint < EndPoint holds at all times; use the
// Set methods to mutate.
type Envelope struct {
	Levels       [EnvelopePoints]int
	Rates        [EnvelopePoints]int
	SustainPoint int // 0..7
	EndPoint     int // 1..8
}

// NewEnvelope returns an envelope with all points at the default
// level and rate.
func NewEnvelope() Envelope {
	e := Envelope{SustainPoint: defaultSustainPoint, EndPoint: defaultEndPoint}
	for i := range e.Rates {
		e.Rates[i] = defaultRate
	}
	return e
}

// SetLevel sets the level of point p, clamped to 0-127.
func (e *Envelope) SetLevel(p, level int) {
	if p < 0 || p >= EnvelopePoints {
		return
	}
	e.Levels[p] = clamp(level, 0, 127)
}

// SetRate sets the rate of point p, clamped to 1-127.
func (e *Envelope) SetRate(p, rate int) {
	if p < 0 || p >= EnvelopePoints {
		return
	}
	e.Rates[p] = clamp(rate, 1, 127)
}

// SetSustainPoint moves the sustain point. A value at or past the end
// point clamps to just below it.
func (e *Envelope) SetSustainPoint(p int) {
	p = clamp(p, 0, EnvelopePoints-1)
	if p >= e.EndPoint {
		p = e.EndPoint - 1
	}
	e.SustainPoint = p
}

// SetEndPoint moves the end point. The sustain point is dragged down
// if it would no longer precede the end.
func (e *Envelope) SetEndPoint(p int) {
	p = clamp(p, 1, EnvelopePoints)
	e.EndPoint = p
	if e.SustainPoint >= p {
		e.SustainPoint = p - 1
	}
}

// ClampEvent records one out-of-range byte replaced by its default
// during decode. Strict callers treat a non-empty clamp list as a
// validation failure; the decoded record is usable either way.
type ClampEvent struct {
	Field   string
	Raw     int
	Applied int
}

func (c ClampEvent) String() string {
	return fmt.Sprintf("%s: %d -> %d", c.Field, c.Raw, c.Applied)
}

// decodeByte validates one field byte against its range, substituting
// def and recording a clamp event when it is out of range.
func decodeByte(b byte, min, max, def int, field string, clamps *[]ClampEvent) int {
	v := int(b)
	if v < min || v > max {
		*clamps = append(*clamps, ClampEvent{Field: field, Raw: v, Applied: def})
		return def
	}
	return v
}

// decodeEnvelope decodes the 18-byte wire layout: 8 levels, 8 rates,
// sustain point, end point.
func decodeEnvelope(data []byte, field string, clamps *[]ClampEvent) Envelope {
	var e Envelope
	for i := 0; i < EnvelopePoints; i++ {
		e.Levels[i] = decodeByte(data[i], 0, 127, defaultLevel,
			fmt.Sprintf("%s.level[%d]", field, i), clamps)
		e.Rates[i] = decodeByte(data[EnvelopePoints+i], 1, 127, defaultRate,
			fmt.Sprintf("%s.rate[%d]", field, i), clamps)
	}
	e.EndPoint = decodeByte(data[EnvelopePoints*2+1], 1, EnvelopePoints, defaultEndPoint,
		field+".endPoint", clamps)
	e.SustainPoint = decodeByte(data[EnvelopePoints*2], 0, EnvelopePoints-1, defaultSustainPoint,
		field+".sustainPoint", clamps)
	if e.SustainPoint >= e.EndPoint {
		*clamps = append(*clamps, ClampEvent{
			Field: field + ".sustainPoint", Raw: e.SustainPoint, Applied: e.EndPoint - 1,
		})
		e.SustainPoint = e.EndPoint - 1
	}
	return e
}

// appendEnvelope appends the wire encoding of e to b.
func appendEnvelope(b []byte, e Envelope) []byte {
	for _, l := range e.Levels {
		b = append(b, byte(clamp(l, 0, 127)))
	}
	for _, r := range e.Rates {
		b = append(b, byte(clamp(r, 1, 127)))
	}
	end := clamp(e.EndPoint, 1, EnvelopePoints)
	sustain := clamp(e.SustainPoint, 0, end-1)
	return append(b, byte(sustain), byte(end))
}
