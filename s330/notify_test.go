package s330

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestIsChangeNotification(t *testing.T) {
	if !IsChangeNotification(DataSet(0, patchBase, 1)) {
		t.Error("DT1 frame not recognized as notification")
	}
	if IsChangeNotification(DataRequest(0, patchBase, 1)) {
		t.Error("RQ1 frame recognized as notification")
	}
	if IsChangeNotification([]byte{0xf0, 0xf7}) {
		t.Error("short frame recognized as notification")
	}
}

func TestParseNotificationPatchParameter(t *testing.T) {
	// Patch 5, detune byte.
	addr, err := recordAddress(KindPatch, 5, patchNameLen+4)
	if err != nil {
		t.Fatal(err)
	}
	ev, err := ParseNotification(DataSet(1, addr, 0x50), 1)
	if err != nil {
		t.Fatalf("ParseNotification: %v", err)
	}
	if ev.Area != AreaPatch || ev.Index != 5 || ev.Offset != patchNameLen+4 {
		t.Errorf("event = %+v, want patch 5 offset %d", ev, patchNameLen+4)
	}
	if !bytes.Equal(ev.Value, []byte{0x50}) {
		t.Errorf("value = % x, want 50", ev.Value)
	}
}

func TestParseNotificationToneParameter(t *testing.T) {
	addr, err := recordAddress(KindTone, 17, toneNameLen)
	if err != nil {
		t.Fatal(err)
	}
	ev, err := ParseNotification(DataSet(0, addr, 0x33), 0)
	if err != nil {
		t.Fatalf("ParseNotification: %v", err)
	}
	if ev.Area != AreaTone || ev.Index != 17 || ev.Offset != toneNameLen {
		t.Errorf("event = %+v, want tone 17 offset %d", ev, toneNameLen)
	}
}

// Front-panel state is classified distinctly from record parameters.
func TestParseNotificationFunctionArea(t *testing.T) {
	ev, err := ParseNotification(FuncPatchSelect.Set(0, 7), 0)
	if err != nil {
		t.Fatalf("ParseNotification: %v", err)
	}
	if ev.Area != AreaFunction || ev.Offset != FuncPatchSelect.Address {
		t.Errorf("event = %+v, want function offset 0x%02x", ev, FuncPatchSelect.Address)
	}
}

// Another controller's traffic on a shared bus is routine; the reason
// must say so and no error type stronger than a sentinel may escape.
func TestParseNotificationDeviceIDMismatch(t *testing.T) {
	_, err := ParseNotification(DataSet(2, patchBase, 1), 1)
	if !errors.Is(err, ErrDeviceIDMismatch) {
		t.Fatalf("err = %v, want ErrDeviceIDMismatch", err)
	}
	if !strings.Contains(err.Error(), "device id mismatch") {
		t.Errorf("reason %q does not mention the mismatch", err.Error())
	}
}

func TestParseNotificationRejectsRQ1(t *testing.T) {
	_, err := ParseNotification(DataRequest(1, patchBase, 8), 1)
	if !errors.Is(err, ErrNotNotification) {
		t.Fatalf("err = %v, want ErrNotNotification", err)
	}
}

// Addresses outside every known range surface distinctly so wire
// drift is not mistaken for bus noise.
func TestParseNotificationUnknownAddress(t *testing.T) {
	for _, addr := range []int{
		functionBase + functionSize,    // past the function area
		patchBase + PatchDataSize,      // slack between patch records
		toneBase + NumTones*toneStride, // past the tone area
		3 << 14,
	} {
		_, err := ParseNotification(DataSet(1, addr, 1), 1)
		if !errors.Is(err, ErrUnknownAddress) {
			t.Errorf("addr 0x%06x: err = %v, want ErrUnknownAddress", addr, err)
		}
	}
}

func TestParseNotificationChecksumMismatch(t *testing.T) {
	frame := DataSet(1, patchBase, 1)
	frame[8] ^= 0x40
	_, err := ParseNotification(frame, 1)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("err = %v, want ErrChecksumMismatch", err)
	}
}
