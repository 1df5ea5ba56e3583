package s330

import "fmt"

// ParameterChange is a hardware-originated parameter edit, sent by
// the sampler as an unsolicited DT1 frame when the front panel or a
// remote controller changes a value.
type ParameterChange struct {
	Area   Area
	Index  int    // record index; 0 for the function area
	Offset int    // field offset within the record or function area
	Value  []byte // raw data bytes as received
}

// IsChangeNotification reports whether frame carries the DT1 data
// transfer command. It does not validate the frame beyond that; use
// ParseNotification for full classification.
func IsChangeNotification(frame []byte) bool {
	return len(frame) >= 5 &&
		frame[0] == sysExStart &&
		frame[1] == manufacturerID &&
		frame[3] == modelID &&
		frame[4] == cmdDT1
}

// ParseNotification classifies frame as a parameter-change
// notification for the given device ID.
//
// Rejections are sentinel errors carrying the reason:
// ErrNotNotification for the wrong command code,
// ErrDeviceIDMismatch when another controller on the bus was
// addressed (routine, not worth logging), ErrChecksumMismatch for a
// corrupt frame, and ErrUnknownAddress when the address matches no
// known range.
func ParseNotification(frame []byte, device DeviceID) (*ParameterChange, error) {
	parts, err := splitFrame(frame)
	if err != nil {
		return nil, err
	}
	if parts.cmd != cmdDT1 {
		return nil, fmt.Errorf("%w: command 0x%02x", ErrNotNotification, parts.cmd)
	}
	if parts.device != device {
		return nil, fmt.Errorf("%w: got %d, configured %d", ErrDeviceIDMismatch, parts.device, device)
	}
	loc, ok := locateAddress(parts.addr)
	if !ok {
		return nil, fmt.Errorf("%w: 0x%06x", ErrUnknownAddress, parts.addr)
	}
	value := make([]byte, len(parts.data))
	copy(value, parts.data)
	return &ParameterChange{
		Area:   loc.Area,
		Index:  loc.Index,
		Offset: loc.Offset,
		Value:  value,
	}, nil
}
