package midiport

import (
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register the rtmidi driver
)

// RTMidi is a Transport over gomidi's rtmidi driver. Unlike portmidi
// it buffers whole SysEx messages in the driver, so chunks delivered
// here are usually complete frames; the reassembler treats that as
// the one-chunk case.
type RTMidi struct {
	in   drivers.In
	out  drivers.Out
	stop func()
	subs subscribers
}

// OpenRTMidi opens the input and output ports whose names contain the
// given fragments.
func OpenRTMidi(inName, outName string) (*RTMidi, error) {
	in, err := findInPort(inName)
	if err != nil {
		return nil, err
	}
	out, err := findOutPort(outName)
	if err != nil {
		return nil, err
	}
	if err := out.Open(); err != nil {
		return nil, fmt.Errorf("opening output port: %w", err)
	}

	t := &RTMidi{in: in, out: out}
	stop, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
		if len(msg) > 0 && msg[0] == 0xf0 {
			t.subs.deliver([]byte(msg))
		}
	}, midi.UseSysEx(), midi.SysExBufferSize(4096))
	if err != nil {
		out.Close()
		return nil, fmt.Errorf("listening on input port: %w", err)
	}
	t.stop = stop
	return t, nil
}

func findInPort(name string) (drivers.In, error) {
	ins := midi.GetInPorts()
	if len(ins) == 0 {
		return nil, fmt.Errorf("no MIDI inputs available")
	}
	lower := strings.ToLower(name)
	for _, in := range ins {
		if strings.Contains(strings.ToLower(in.String()), lower) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("no MIDI input contains %q", name)
}

func findOutPort(name string) (drivers.Out, error) {
	outs := midi.GetOutPorts()
	if len(outs) == 0 {
		return nil, fmt.Errorf("no MIDI outputs available")
	}
	lower := strings.ToLower(name)
	for _, out := range outs {
		if strings.Contains(strings.ToLower(out.String()), lower) {
			return out, nil
		}
	}
	return nil, fmt.Errorf("no MIDI output contains %q", name)
}

// Send transmits one complete outbound message.
func (t *RTMidi) Send(msg []byte) error {
	if !t.out.IsOpen() {
		if err := t.out.Open(); err != nil {
			return err
		}
	}
	return t.out.Send(msg)
}

// Subscribe registers fn for raw input chunks.
func (t *RTMidi) Subscribe(fn func(chunk []byte)) (cancel func(), err error) {
	return t.subs.add(fn), nil
}

// Close stops listening and releases the driver.
func (t *RTMidi) Close() error {
	if t.stop != nil {
		t.stop()
	}
	err := t.out.Close()
	drivers.Close()
	return err
}
