package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ardnew/usbmic/pkg"
	"github.com/ardnew/usbmic/uac"
)

// Feeder supplies the packet for each isochronous interval.
type Feeder interface {
	OnFeedInterval() (packet []byte, ok bool)
}

// Resetter is implemented by feeders that keep state across intervals. Reset
// is called on detach so the next attach starts from scratch.
type Resetter interface {
	Reset()
}

// PacketSink consumes the packets a transport sends to the host. The packet
// is only valid for the duration of the call.
type PacketSink interface {
	WritePacket(interval uint64, packet []byte) error
}

// TransportConfig configures a [Transport].
type TransportConfig struct {
	// Interval is the isochronous service interval.
	Interval time.Duration

	// Budget is the time a feed may take before the interval counts as
	// missed. Defaults to Interval.
	Budget time.Duration

	// OnFault is called with a *pkg.Fault when a feed misses its budget.
	OnFault func(error)
}

// TransportStats holds transport counters.
type TransportStats struct {
	Intervals uint64 // Intervals serviced while attached
	Packets   uint64 // Packets delivered to the sink
	Empty     uint64 // Intervals with nothing to send
	Faults    uint64 // Feeds that missed their budget
	Requests  uint64 // Class requests processed
	Stalls    uint64 // Class requests stalled
}

// Transport simulates the device side of a USB stack for one audio
// function: it drives the feed cadence on the isochronous IN endpoint and
// routes host control requests to the function on EP0.
//
// Tick and Run form the feed context; Control, SetInterface, Attach and
// Detach form the control context and may be called from any goroutine.
type Transport struct {
	cfg    TransportConfig
	feeder Feeder
	fn     *uac.Function
	sink   PacketSink

	// EP0 serialization
	mutex sync.Mutex

	attached atomic.Bool
	running  atomic.Bool

	// Clock, replaceable in tests
	now func() time.Time

	intervals atomic.Uint64
	packets   atomic.Uint64
	empty     atomic.Uint64
	faults    atomic.Uint64
	requests  atomic.Uint64
	stalls    atomic.Uint64
}

// NewTransport creates a detached transport.
func NewTransport(cfg TransportConfig, feeder Feeder, fn *uac.Function, sink PacketSink) (*Transport, error) {
	if feeder == nil || fn == nil || sink == nil || cfg.Interval <= 0 || cfg.Budget < 0 {
		return nil, pkg.ErrInvalidParameter
	}
	if cfg.Budget == 0 {
		cfg.Budget = cfg.Interval
	}
	return &Transport{
		cfg:    cfg,
		feeder: feeder,
		fn:     fn,
		sink:   sink,
		now:    time.Now,
	}, nil
}

// Config returns the transport configuration with defaults applied.
func (t *Transport) Config() TransportConfig {
	return t.cfg
}

// Function returns the audio function served by the transport.
func (t *Transport) Function() *uac.Function {
	return t.fn
}

// Attached reports whether a host is connected.
func (t *Transport) Attached() bool {
	return t.attached.Load()
}

// Attach connects the transport to a host. The streaming interface starts
// in alternate setting 0, so no recording happens until the host selects a
// non-zero setting.
func (t *Transport) Attach() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.attached.Swap(true) {
		return
	}
	pkg.LogInfo(pkg.ComponentTransport, "attached",
		"interval", t.cfg.Interval,
		"budget", t.cfg.Budget)
}

// Detach disconnects the transport. The streaming interface falls back to
// alternate setting 0, which stops any recording in progress, and a feeder
// implementing [Resetter] is reset so a start still pending at unplug does
// not carry over to the next attach.
func (t *Transport) Detach() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.attached.Load() {
		return nil
	}
	err := t.fn.SetAlternate(t.fn.Config().StreamingInterface, 0)
	t.attached.Store(false)
	if r, ok := t.feeder.(Resetter); ok {
		r.Reset()
	}
	pkg.LogInfo(pkg.ComponentTransport, "detached")
	return err
}

// SetInterface handles a host SET_INTERFACE request.
func (t *Transport) SetInterface(iface, alt uint8) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.attached.Load() {
		return pkg.ErrNotAttached
	}
	return t.fn.SetAlternate(iface, alt)
}

// Control handles a host class request. For device-to-host requests it
// returns the response bytes; they are valid until the next call.
func (t *Transport) Control(setup *uac.SetupPacket, data []byte) ([]byte, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.attached.Load() {
		return nil, pkg.ErrNotAttached
	}
	t.requests.Add(1)
	resp, err := t.fn.HandleSetup(setup, data)
	if errors.Is(err, pkg.ErrStall) {
		t.stalls.Add(1)
	}
	return resp, err
}

// Tick services one isochronous interval: it asks the feeder for a packet,
// hands it to the sink and checks the feed against its budget. A missed
// budget is reported to OnFault and returned as a *pkg.Fault.
func (t *Transport) Tick() error {
	if !t.attached.Load() {
		return pkg.ErrNotAttached
	}
	n := t.intervals.Add(1)

	start := t.now()
	packet, ok := t.feeder.OnFeedInterval()
	elapsed := t.now().Sub(start)

	if ok {
		t.packets.Add(1)
		if err := t.sink.WritePacket(n, packet); err != nil {
			return fmt.Errorf("interval %d: %w", n, err)
		}
	} else {
		t.empty.Add(1)
	}

	if elapsed > t.cfg.Budget {
		t.faults.Add(1)
		fault := &pkg.Fault{Interval: n, Elapsed: elapsed, Budget: t.cfg.Budget}
		pkg.LogError(pkg.ComponentTransport, "feed deadline missed",
			"interval", n,
			"elapsed", elapsed,
			"budget", t.cfg.Budget)
		if t.cfg.OnFault != nil {
			t.cfg.OnFault(fault)
		}
		return fault
	}
	return nil
}

// Run ticks every interval until ctx is done or a tick fails. Intervals
// while detached are skipped. It returns nil when ctx is done.
func (t *Transport) Run(ctx context.Context) error {
	if !t.running.CompareAndSwap(false, true) {
		return pkg.ErrAlreadyRunning
	}
	defer t.running.Store(false)

	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	pkg.LogDebug(pkg.ComponentTransport, "feed loop started")
	defer pkg.LogDebug(pkg.ComponentTransport, "feed loop stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := t.Tick(); err != nil {
				if errors.Is(err, pkg.ErrNotAttached) {
					continue
				}
				return err
			}
		}
	}
}

// Stats returns a snapshot of the transport counters.
func (t *Transport) Stats() TransportStats {
	return TransportStats{
		Intervals: t.intervals.Load(),
		Packets:   t.packets.Load(),
		Empty:     t.empty.Load(),
		Faults:    t.faults.Load(),
		Requests:  t.requests.Load(),
		Stalls:    t.stalls.Load(),
	}
}
