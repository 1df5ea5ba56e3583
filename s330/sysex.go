// Package s330 is a library for communicating with a Roland S-330
// sampler over SysEx MIDI messages.
package s330

import "fmt"

type DeviceID byte

const (
	// DefaultDevice is the default device ID unless otherwise configured.
	DefaultDevice = 0x00

	manufacturerID = 0x41
	modelID        = 0x16

	sysExStart = 0xf0
	sysExEnd   = 0xf7
)

const (
	cmdRQ1 = 0x11
	cmdDT1 = 0x12
)

// checksum computes the 7-bit twos-complement checksum over the
// address and data bytes of a frame. The device silently discards any
// command whose checksum does not match.
func checksum(data []byte) byte {
	sum := 0
	for _, b := range data {
		sum += int(b)
	}
	return byte((128 - (sum % 128)) % 128)
}

// addressBytes splits a linear address into the three 7-bit bytes
// carried on the wire, MSB first.
func addressBytes(addr int) []byte {
	return []byte{
		byte((addr >> 14) & 0x7f),
		byte((addr >> 7) & 0x7f),
		byte(addr & 0x7f),
	}
}

func addressFromBytes(hi, mid, lo byte) int {
	return int(hi&0x7f)<<14 | int(mid&0x7f)<<7 | int(lo&0x7f)
}

// DataSet returns a DT1 command that sets the value of a range of
// memory in the sampler.
func DataSet(device DeviceID, addr int, data ...byte) []byte {
	body := addressBytes(addr)
	body = append(body, data...)
	msg := []byte{sysExStart, manufacturerID, byte(device), modelID, cmdDT1}
	msg = append(msg, body...)
	msg = append(msg, checksum(body))
	msg = append(msg, sysExEnd)
	return msg
}

// DataRequest returns an RQ1 command asking the sampler to send back
// size bytes of memory starting at addr. The reply arrives as a DT1
// frame for the same address.
func DataRequest(device DeviceID, addr, size int) []byte {
	body := addressBytes(addr)
	body = append(body, addressBytes(size)...)
	msg := []byte{sysExStart, manufacturerID, byte(device), modelID, cmdRQ1}
	msg = append(msg, body...)
	msg = append(msg, checksum(body))
	msg = append(msg, sysExEnd)
	return msg
}

// frameParts is a validated inbound frame broken into its fields. The
// data slice aliases the frame buffer.
type frameParts struct {
	device DeviceID
	cmd    byte
	addr   int
	data   []byte
}

// minFrameLen is a frame with zero data bytes:
// F0 41 dev 16 cmd aa am al sum F7.
const minFrameLen = 10

// splitFrame validates an inbound frame and breaks it into fields.
// The checksum is recomputed over the received address and data; on
// mismatch the frame must not be passed downstream.
func splitFrame(frame []byte) (*frameParts, error) {
	if len(frame) < minFrameLen || frame[0] != sysExStart || frame[len(frame)-1] != sysExEnd {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedFrame, len(frame))
	}
	if frame[1] != manufacturerID {
		return nil, fmt.Errorf("%w: manufacturer 0x%02x", ErrNotNotification, frame[1])
	}
	if frame[3] != modelID {
		return nil, fmt.Errorf("%w: model 0x%02x", ErrNotNotification, frame[3])
	}
	body := frame[5 : len(frame)-2]
	if got, want := frame[len(frame)-2], checksum(body); got != want {
		return nil, fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrChecksumMismatch, got, want)
	}
	return &frameParts{
		device: DeviceID(frame[2]),
		cmd:    frame[4],
		addr:   addressFromBytes(body[0], body[1], body[2]),
		data:   body[3:],
	}, nil
}
