package s330

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"s330ctl/debug"
)

// Transport is the raw MIDI byte pipe the client speaks through. The
// transport guarantees chunks arrive in send order but nothing about
// their boundaries; the client reassembles frames itself.
type Transport interface {
	// Send transmits one complete outbound message.
	Send(msg []byte) error
	// Subscribe registers fn to receive raw input chunks. The
	// returned function cancels the subscription.
	Subscribe(fn func(chunk []byte)) (cancel func(), err error)
	Close() error
}

// Record is a decoded patch or tone.
type Record interface {
	Encode() []byte
}

// LoadOptions controls a progressive bank load. All callbacks are
// optional and fire synchronously from LoadBank.
type LoadOptions struct {
	// OnProgress fires after every item attempt, successful or not.
	OnProgress func(done, total int)
	// OnItem fires after each record is decoded and cached, so
	// callers can render partial progress.
	OnItem func(index int, rec Record)
	// OnClamp reports decode substitutions for strict callers.
	OnClamp func(index int, clamps []ClampEvent)
	// Force reloads the bank even if it is already cached.
	Force bool
}

// pendingRequest matches the next solicited response. The sampler
// tags nothing; responses pair with requests by arrival order, which
// is why only one request is ever outstanding.
type pendingRequest struct {
	addr int
	ch   chan response
}

type response struct {
	data []byte
	err  error
}

// collection is the cache for one record kind. Raw bytes are kept
// alongside the decoded record so parameter-change notifications can
// be applied bytewise and redecoded.
type collection struct {
	raw   map[int][]byte
	recs  map[int]Record
	banks map[int]bool
}

func newCollection() *collection {
	return &collection{
		raw:   make(map[int][]byte),
		recs:  make(map[int]Record),
		banks: make(map[int]bool),
	}
}

func (c *collection) invalidate() {
	c.raw = make(map[int][]byte)
	c.recs = make(map[int]Record)
	c.banks = make(map[int]bool)
}

// Client speaks the sampler's SysEx protocol over a Transport: it
// issues read/write commands, reassembles and routes inbound frames,
// maintains the record cache, and fans out change notifications.
//
// The wire is half-duplex with no request tagging, so the client
// enforces strict serialization: one outstanding request at a time,
// one bank load at a time.
type Client struct {
	device  DeviceID
	tr      Transport
	timeout time.Duration

	mu      sync.Mutex
	pending *pendingRequest
	loading bool

	patches *collection
	tones   *collection

	subMu   sync.Mutex
	subs    map[int]func(ParameterChange)
	nextSub int

	unsubscribe func()
}

// DefaultRequestTimeout is how long a read waits for the sampler to
// answer before the bank load aborts.
const DefaultRequestTimeout = 2 * time.Second

// NewClient wires a client to the transport and starts listening for
// inbound frames. The client owns its frame reassembler; one client
// per port.
func NewClient(tr Transport, device DeviceID) (*Client, error) {
	c := &Client{
		device:  device,
		tr:      tr,
		timeout: DefaultRequestTimeout,
		patches: newCollection(),
		tones:   newCollection(),
		subs:    make(map[int]func(ParameterChange)),
	}
	reasm := NewReassembler(c.handleFrame)
	cancel, err := tr.Subscribe(reasm.Feed)
	if err != nil {
		return nil, fmt.Errorf("subscribing to transport: %w", err)
	}
	c.unsubscribe = cancel
	return c, nil
}

// SetRequestTimeout overrides the per-request response timeout.
func (c *Client) SetRequestTimeout(d time.Duration) {
	c.mu.Lock()
	c.timeout = d
	c.mu.Unlock()
}

// Close stops listening on the transport. It does not close the
// transport itself, which the caller owns.
func (c *Client) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

// OnParameterChange registers fn to receive hardware-originated
// parameter edits. The returned function cancels the subscription.
func (c *Client) OnParameterChange(fn func(ParameterChange)) (cancel func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()
	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

// handleFrame routes one complete inbound frame: to the outstanding
// request if its address matches, otherwise through the notification
// parser.
func (c *Client) handleFrame(frame []byte) {
	parts, err := splitFrame(frame)

	c.mu.Lock()
	p := c.pending
	c.mu.Unlock()

	if p != nil {
		if errors.Is(err, ErrChecksumMismatch) {
			// A corrupt frame while a read is outstanding fails that
			// read; a desynced sequence cannot be repaired mid-bank.
			select {
			case p.ch <- response{err: err}:
			default:
			}
			return
		}
		if err == nil && parts.cmd == cmdDT1 && parts.addr == p.addr {
			data := make([]byte, len(parts.data))
			copy(data, parts.data)
			select {
			case p.ch <- response{data: data}:
			default:
			}
			return
		}
	}
	if err != nil {
		debug.Log("frame", "discarding inbound frame: %v", err)
		return
	}

	ev, err := ParseNotification(frame, c.device)
	if err != nil {
		// Device-id mismatches are routine bus traffic; anything else
		// is worth a trace.
		if expectedReject(err) {
			debug.Log("notify", "ignoring frame: %v", err)
		} else {
			debug.Log("notify", "unexpected frame: %v", err)
		}
		return
	}
	c.applyChange(*ev)

	c.subMu.Lock()
	fns := make([]func(ParameterChange), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()
	for _, fn := range fns {
		fn(*ev)
	}
}

// applyChange patches the cached raw bytes of the affected record and
// redecodes it, so every consumer of the cache sees front-panel edits.
func (c *Client) applyChange(ev ParameterChange) {
	var kind RecordKind
	switch ev.Area {
	case AreaPatch:
		kind = KindPatch
	case AreaTone:
		kind = KindTone
	default:
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	col := c.collection(kind)
	raw, ok := col.raw[ev.Index]
	if !ok {
		return
	}
	if ev.Offset+len(ev.Value) > len(raw) {
		debug.Log("notify", "change for %s %d overruns record (offset %d, %d bytes)",
			kind, ev.Index, ev.Offset, len(ev.Value))
		return
	}
	copy(raw[ev.Offset:], ev.Value)
	rec, _, err := decodeRecord(kind, raw)
	if err != nil {
		return
	}
	col.recs[ev.Index] = rec
}

func expectedReject(err error) bool {
	return errors.Is(err, ErrDeviceIDMismatch) || errors.Is(err, ErrNotNotification)
}

func (c *Client) collection(kind RecordKind) *collection {
	if kind == KindPatch {
		return c.patches
	}
	return c.tones
}

func decodeRecord(kind RecordKind, data []byte) (Record, []ClampEvent, error) {
	if kind == KindPatch {
		return DecodePatch(data)
	}
	return DecodeTone(data)
}

// readRecord issues one RQ1 and blocks for the matching DT1 reply.
// Never call with another request outstanding.
func (c *Client) readRecord(ctx context.Context, kind RecordKind, index int) ([]byte, error) {
	addr, err := recordAddress(kind, index, 0)
	if err != nil {
		return nil, err
	}
	req := DataRequest(c.device, addr, recordSize(kind))

	p := &pendingRequest{addr: addr, ch: make(chan response, 1)}
	c.mu.Lock()
	c.pending = p
	timeout := c.timeout
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.pending = nil
		c.mu.Unlock()
	}()

	debug.Hex("send", fmt.Sprintf("RQ1 %s %d", kind, index), req)
	if err := c.tr.Send(req); err != nil {
		return nil, fmt.Errorf("sending read request: %w", err)
	}

	select {
	case r := <-p.ch:
		return r.data, r.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w: %s %d", ErrTimeout, kind, index)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// LoadBank progressively fetches one bank of records into the cache,
// strictly one request at a time. If the bank is already cached and
// opts.Force is false it returns without touching the wire.
//
// The first failed item aborts the rest of the bank: a short read
// sequence that goes out of sync cannot be resynchronized, only
// restarted. On a partial failure the bank stays unmarked and the
// already-decoded items stay cached.
func (c *Client) LoadBank(ctx context.Context, kind RecordKind, bank int, opts LoadOptions) error {
	if bank < 0 || bank >= NumBanks(kind) {
		return fmt.Errorf("%s bank %d out of range", kind, bank)
	}

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return ErrLoadInFlight
	}
	if !opts.Force && c.collection(kind).banks[bank] {
		c.mu.Unlock()
		return nil
	}
	c.loading = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	start := bank * BankSize
	for i := 0; i < BankSize; i++ {
		index := start + i
		data, err := c.readRecord(ctx, kind, index)
		if err == nil && len(data) != recordSize(kind) {
			err = fmt.Errorf("%w: %s %d: %d data bytes, want %d",
				ErrMalformedFrame, kind, index, len(data), recordSize(kind))
		}
		if err != nil {
			if opts.OnProgress != nil {
				opts.OnProgress(i, BankSize)
			}
			return fmt.Errorf("loading %s %d: %w", kind, index, err)
		}

		rec, clamps, err := decodeRecord(kind, data)
		if err != nil {
			if opts.OnProgress != nil {
				opts.OnProgress(i, BankSize)
			}
			return fmt.Errorf("decoding %s %d: %w", kind, index, err)
		}
		if len(clamps) > 0 && opts.OnClamp != nil {
			opts.OnClamp(index, clamps)
		}

		c.mu.Lock()
		col := c.collection(kind)
		col.raw[index] = data
		col.recs[index] = rec
		c.mu.Unlock()

		if opts.OnItem != nil {
			opts.OnItem(index, rec)
		}
		if opts.OnProgress != nil {
			opts.OnProgress(i+1, BankSize)
		}
	}

	c.mu.Lock()
	c.collection(kind).banks[bank] = true
	c.mu.Unlock()
	return nil
}

// InvalidateCache drops every cached record and loaded-bank marker
// for the kind, together. There is no partial invalidation; a
// stale-loaded-but-empty state must not exist.
func (c *Client) InvalidateCache(kind RecordKind) {
	c.mu.Lock()
	c.collection(kind).invalidate()
	c.mu.Unlock()
}

// BankLoaded reports whether the bank is fully cached.
func (c *Client) BankLoaded(kind RecordKind, bank int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collection(kind).banks[bank]
}

// Patch returns the cached patch at index, if loaded.
func (c *Client) Patch(index int) (*Patch, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.patches.recs[index]
	if !ok {
		return nil, false
	}
	return rec.(*Patch), true
}

// Tone returns the cached tone at index, if loaded.
func (c *Client) Tone(index int) (*Tone, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.tones.recs[index]
	if !ok {
		return nil, false
	}
	return rec.(*Tone), true
}

// WritePatch sends the patch to the sampler as a DT1 and updates the
// cache. The device sends no acknowledgement for writes.
func (c *Client) WritePatch(index int, p *Patch) error {
	return c.writeRecord(KindPatch, index, p)
}

// WriteTone sends the tone to the sampler as a DT1 and updates the
// cache.
func (c *Client) WriteTone(index int, t *Tone) error {
	return c.writeRecord(KindTone, index, t)
}

func (c *Client) writeRecord(kind RecordKind, index int, rec Record) error {
	addr, err := recordAddress(kind, index, 0)
	if err != nil {
		return err
	}
	data := rec.Encode()
	msg := DataSet(c.device, addr, data...)
	debug.Hex("send", fmt.Sprintf("DT1 %s %d", kind, index), msg)
	if err := c.tr.Send(msg); err != nil {
		return fmt.Errorf("writing %s %d: %w", kind, index, err)
	}
	c.mu.Lock()
	col := c.collection(kind)
	col.raw[index] = data
	col.recs[index] = rec
	c.mu.Unlock()
	return nil
}

// SetRegister writes a front-panel function register.
func (c *Client) SetRegister(r *Register, value int) error {
	return c.tr.Send(r.Set(c.device, value))
}
