// Package midiport provides MIDI transport backends for the s330
// client: portmidi and rtmidi. Both deliver raw input chunks with no
// framing guarantees; SysEx reassembly is the client's job.
package midiport

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rakyll/portmidi"
)

// subscribers is the shared chunk fanout used by both backends.
type subscribers struct {
	mu   sync.Mutex
	subs map[int]func([]byte)
	next int
}

func (s *subscribers) add(fn func([]byte)) (cancel func()) {
	s.mu.Lock()
	if s.subs == nil {
		s.subs = make(map[int]func([]byte))
	}
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *subscribers) deliver(chunk []byte) {
	s.mu.Lock()
	fns := make([]func([]byte), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(chunk)
	}
}

// PortMidi is a Transport over a pair of portmidi streams.
type PortMidi struct {
	in   *portmidi.Stream
	out  *portmidi.Stream
	subs subscribers
	done chan struct{}
}

// OpenPortMidi initializes portmidi and opens the input and output
// ports whose names contain the given fragments. Empty names select
// the system defaults.
func OpenPortMidi(inName, outName string) (*PortMidi, error) {
	if err := portmidi.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portmidi: %w", err)
	}

	outID := portmidi.DefaultOutputDeviceID()
	if outName != "" {
		id, err := portForName(outName, false)
		if err != nil {
			return nil, err
		}
		outID = id
	}
	inID := portmidi.DefaultInputDeviceID()
	if inName != "" {
		id, err := portForName(inName, true)
		if err != nil {
			return nil, err
		}
		inID = id
	}

	out, err := portmidi.NewOutputStream(outID, 1024, 0)
	if err != nil {
		return nil, fmt.Errorf("opening output stream: %w", err)
	}
	in, err := portmidi.NewInputStream(inID, 1024)
	if err != nil {
		out.Close()
		return nil, fmt.Errorf("opening input stream: %w", err)
	}

	t := &PortMidi{in: in, out: out, done: make(chan struct{})}
	go t.readLoop()
	return t, nil
}

// portForName returns the device ID of the port whose name contains
// name, or an error listing the valid ports.
func portForName(name string, input bool) (portmidi.DeviceID, error) {
	portNames := []string{}
	for i := 0; i < portmidi.CountDevices(); i++ {
		id := portmidi.DeviceID(i)
		info := portmidi.Info(id)
		if input && !info.IsInputAvailable {
			continue
		}
		if !input && !info.IsOutputAvailable {
			continue
		}
		if strings.Contains(strings.ToLower(info.Name), strings.ToLower(name)) {
			return id, nil
		}
		portNames = append(portNames, fmt.Sprintf("%q", info.Name))
	}
	return portmidi.DeviceID(-1), fmt.Errorf("invalid port %q: valid ports: %v", name, strings.Join(portNames, "; "))
}

// Ports lists available port names. Used by the list-ports command.
func Ports() (ins, outs []string, err error) {
	if err := portmidi.Initialize(); err != nil {
		return nil, nil, err
	}
	for i := 0; i < portmidi.CountDevices(); i++ {
		info := portmidi.Info(portmidi.DeviceID(i))
		if info.IsInputAvailable {
			ins = append(ins, info.Name)
		}
		if info.IsOutputAvailable {
			outs = append(outs, info.Name)
		}
	}
	return ins, outs, nil
}

// readLoop forwards input to subscribers. portmidi hands SysEx input
// back in pieces as it drains the driver buffer, so a chunk here is
// not necessarily a whole frame.
func (t *PortMidi) readLoop() {
	ch := t.in.Listen()
	for {
		select {
		case <-t.done:
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if len(ev.SysEx) > 0 {
				t.subs.deliver(ev.SysEx)
			}
		}
	}
}

// Send transmits one complete outbound message.
func (t *PortMidi) Send(msg []byte) error {
	return t.out.WriteSysExBytes(portmidi.Time(), msg)
}

// Subscribe registers fn for raw input chunks.
func (t *PortMidi) Subscribe(fn func(chunk []byte)) (cancel func(), err error) {
	return t.subs.add(fn), nil
}

// Close closes both streams.
func (t *PortMidi) Close() error {
	close(t.done)
	inErr := t.in.Close()
	outErr := t.out.Close()
	if inErr != nil {
		return inErr
	}
	return outErr
}
