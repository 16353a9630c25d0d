package sim

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ardnew/usbmic/capture"
	"github.com/ardnew/usbmic/pkg"
	"github.com/ardnew/usbmic/uac"
)

var testFunctionConfig = uac.FunctionConfig{
	ControlInterface:   0,
	StreamingInterface: 1,
	FeatureUnit:        2,
	Endpoint:           0x81,
}

// captureSink keeps a copy of every packet.
type captureSink struct {
	packets [][]byte
	err     error
}

func (s *captureSink) WritePacket(_ uint64, packet []byte) error {
	s.packets = append(s.packets, append([]byte(nil), packet...))
	return s.err
}

// fixedFeeder always returns the same packet.
type fixedFeeder struct {
	packet []byte
	ok     bool
	calls  int
}

func (f *fixedFeeder) OnFeedInterval() ([]byte, bool) {
	f.calls++
	return f.packet, f.ok
}

type acceptAll struct{}

func (acceptAll) OnControlEvent(uac.Event, uint8, uac.Selector, []byte, uint8) bool {
	return true
}

// rig is a complete simulated microphone.
type rig struct {
	tone      *Tone
	session   *capture.Session
	transport *Transport
	sink      *captureSink
}

func newRig(t *testing.T) *rig {
	t.Helper()
	formats, err := capture.NewFormatTable(16000, 32000, 48000)
	if err != nil {
		t.Fatalf("NewFormatTable() error = %v", err)
	}
	tone, err := NewTone(ToneConfig{LeftHz: 1000, RightHz: 1500, Amplitude: 0.5, SampleRate: formats.MaxSampleRate()})
	if err != nil {
		t.Fatalf("NewTone() error = %v", err)
	}
	session, err := capture.NewSession(capture.Config{Formats: formats, FeatureUnit: testFunctionConfig.FeatureUnit}, tone, tone)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	sink := &captureSink{}
	tr, err := NewTransport(TransportConfig{Interval: time.Millisecond, Budget: time.Hour},
		session, uac.NewFunction(testFunctionConfig, session), sink)
	if err != nil {
		t.Fatalf("NewTransport() error = %v", err)
	}
	return &rig{tone: tone, session: session, transport: tr, sink: sink}
}

func TestNewTransport(t *testing.T) {
	fn := uac.NewFunction(testFunctionConfig, acceptAll{})
	feeder := &fixedFeeder{}

	tests := []struct {
		name    string
		cfg     TransportConfig
		feeder  Feeder
		fn      *uac.Function
		sink    PacketSink
		wantErr error
	}{
		{"valid", TransportConfig{Interval: time.Millisecond}, feeder, fn, DiscardSink{}, nil},
		{"no interval", TransportConfig{}, feeder, fn, DiscardSink{}, pkg.ErrInvalidParameter},
		{"negative budget", TransportConfig{Interval: time.Millisecond, Budget: -1}, feeder, fn, DiscardSink{}, pkg.ErrInvalidParameter},
		{"no feeder", TransportConfig{Interval: time.Millisecond}, nil, fn, DiscardSink{}, pkg.ErrInvalidParameter},
		{"no function", TransportConfig{Interval: time.Millisecond}, feeder, nil, DiscardSink{}, pkg.ErrInvalidParameter},
		{"no sink", TransportConfig{Interval: time.Millisecond}, feeder, fn, nil, pkg.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTransport(tt.cfg, tt.feeder, tt.fn, tt.sink)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewTransport() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && tr.Config().Budget != tt.cfg.Interval {
				t.Errorf("Config().Budget = %v, want %v", tr.Config().Budget, tt.cfg.Interval)
			}
		})
	}
}

func TestTransportDetached(t *testing.T) {
	feeder := &fixedFeeder{packet: []byte{1, 2}, ok: true}
	tr, _ := NewTransport(TransportConfig{Interval: time.Millisecond}, feeder,
		uac.NewFunction(testFunctionConfig, acceptAll{}), DiscardSink{})

	if err := tr.Tick(); !errors.Is(err, pkg.ErrNotAttached) {
		t.Errorf("Tick() error = %v, want %v", err, pkg.ErrNotAttached)
	}
	if err := tr.SetInterface(1, 1); !errors.Is(err, pkg.ErrNotAttached) {
		t.Errorf("SetInterface() error = %v, want %v", err, pkg.ErrNotAttached)
	}
	var setup uac.SetupPacket
	uac.FeatureUnitSetup(&setup, uac.RequestGetCur, uac.FUMuteControl, 0, 2, 0, 1)
	if _, err := tr.Control(&setup, nil); !errors.Is(err, pkg.ErrNotAttached) {
		t.Errorf("Control() error = %v, want %v", err, pkg.ErrNotAttached)
	}
	if err := tr.Detach(); err != nil {
		t.Errorf("Detach() while detached error = %v", err)
	}
	if feeder.calls != 0 {
		t.Errorf("feeder called %d times while detached", feeder.calls)
	}
}

func TestTransportTick(t *testing.T) {
	feeder := &fixedFeeder{packet: []byte{1, 2, 3, 4}, ok: true}
	sink := &captureSink{}
	tr, _ := NewTransport(TransportConfig{Interval: time.Millisecond, Budget: time.Hour}, feeder,
		uac.NewFunction(testFunctionConfig, acceptAll{}), sink)
	tr.Attach()

	for i := 0; i < 3; i++ {
		if err := tr.Tick(); err != nil {
			t.Fatalf("Tick() error = %v", err)
		}
	}
	feeder.ok = false
	if err := tr.Tick(); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}

	if len(sink.packets) != 3 {
		t.Fatalf("sink got %d packets, want 3", len(sink.packets))
	}
	want := TransportStats{Intervals: 4, Packets: 3, Empty: 1}
	if got := tr.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}

	sinkErr := errors.New("disk full")
	sink.err = sinkErr
	feeder.ok = true
	if err := tr.Tick(); !errors.Is(err, sinkErr) {
		t.Errorf("Tick() error = %v, want %v", err, sinkErr)
	}
}

func TestTransportDeadlineMissed(t *testing.T) {
	var faults []error
	feeder := &fixedFeeder{ok: false}
	tr, _ := NewTransport(TransportConfig{
		Interval: time.Millisecond,
		OnFault:  func(err error) { faults = append(faults, err) },
	}, feeder, uac.NewFunction(testFunctionConfig, acceptAll{}), DiscardSink{})
	tr.Attach()

	// Each feed appears to take 1.5 ms.
	clock := time.Unix(0, 0)
	tr.now = func() time.Time {
		now := clock
		clock = clock.Add(1500 * time.Microsecond)
		return now
	}

	err := tr.Tick()
	var fault *pkg.Fault
	if !errors.As(err, &fault) {
		t.Fatalf("Tick() error = %v, want *pkg.Fault", err)
	}
	if !errors.Is(err, pkg.ErrDeadlineMissed) {
		t.Error("fault does not wrap ErrDeadlineMissed")
	}
	if fault.Interval != 1 || fault.Elapsed != 1500*time.Microsecond || fault.Budget != time.Millisecond {
		t.Errorf("fault = %+v", fault)
	}
	if len(faults) != 1 || faults[0] != err {
		t.Errorf("OnFault calls = %v, want [%v]", faults, err)
	}
	if tr.Stats().Faults != 1 {
		t.Errorf("Stats().Faults = %d, want 1", tr.Stats().Faults)
	}
}

func TestTransportRun(t *testing.T) {
	feeder := &fixedFeeder{packet: []byte{0, 0, 0, 0}, ok: true}
	tr, _ := NewTransport(TransportConfig{Interval: time.Millisecond, Budget: time.Hour}, feeder,
		uac.NewFunction(testFunctionConfig, acceptAll{}), DiscardSink{})
	tr.Attach()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := tr.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if tr.Stats().Intervals == 0 {
		t.Error("Run() serviced no intervals")
	}

	tr.running.Store(true)
	if err := tr.Run(context.Background()); !errors.Is(err, pkg.ErrAlreadyRunning) {
		t.Errorf("Run() while running error = %v, want %v", err, pkg.ErrAlreadyRunning)
	}
}

func TestTransportRunStopsOnFault(t *testing.T) {
	feeder := &fixedFeeder{ok: false}
	tr, _ := NewTransport(TransportConfig{Interval: time.Millisecond}, feeder,
		uac.NewFunction(testFunctionConfig, acceptAll{}), DiscardSink{})
	tr.Attach()

	clock := time.Unix(0, 0)
	tr.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := tr.Run(ctx); !errors.Is(err, pkg.ErrDeadlineMissed) {
		t.Errorf("Run() error = %v, want %v", err, pkg.ErrDeadlineMissed)
	}
}

func TestTransportRecording(t *testing.T) {
	r := newRig(t)
	tr := r.transport
	tr.Attach()

	// Alternate setting 0 after attach: nothing to send.
	if err := tr.Tick(); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if len(r.sink.packets) != 0 {
		t.Fatalf("sink got %d packets before recording", len(r.sink.packets))
	}

	if err := tr.SetInterface(testFunctionConfig.StreamingInterface, 2); err != nil {
		t.Fatalf("SetInterface() error = %v", err)
	}
	if r.session.State() != capture.StateStartRequested {
		t.Fatalf("State() = %v, want StartRequested", r.session.State())
	}

	// Host selects the second format on the endpoint.
	var setup uac.SetupPacket
	uac.EndpointSetup(&setup, uac.RequestSetCur, uac.EPSamplingFreqControl, testFunctionConfig.Endpoint, 3)
	if _, err := tr.Control(&setup, []byte{0x00, 0x7D, 0x00}); err != nil {
		t.Fatalf("SET_CUR sampling frequency error = %v", err)
	}
	uac.EndpointSetup(&setup, uac.RequestGetCur, uac.EPSamplingFreqControl, testFunctionConfig.Endpoint, 3)
	resp, err := tr.Control(&setup, nil)
	if err != nil {
		t.Fatalf("GET_CUR sampling frequency error = %v", err)
	}
	if want := []byte{0x00, 0x7D, 0x00}; !bytes.Equal(resp, want) {
		t.Errorf("GET_CUR sampling frequency = % X, want % X", resp, want)
	}

	for i := 0; i < 3; i++ {
		if err := tr.Tick(); err != nil {
			t.Fatalf("Tick() error = %v", err)
		}
	}
	if len(r.sink.packets) != 3 {
		t.Fatalf("sink got %d packets, want 3", len(r.sink.packets))
	}
	if !allZero(r.sink.packets[0]) {
		t.Error("first packet after start is not silent")
	}
	if allZero(r.sink.packets[1]) || allZero(r.sink.packets[2]) {
		t.Error("live packets are silent")
	}
	if !r.tone.Active() {
		t.Error("tone inactive while recording")
	}

	// Unsupported control stalls.
	uac.FeatureUnitSetup(&setup, uac.RequestSetCur, uac.FUBassControl, 0, 2, 0, 1)
	if _, err := tr.Control(&setup, []byte{0}); !errors.Is(err, pkg.ErrStall) {
		t.Errorf("SET_CUR bass error = %v, want %v", err, pkg.ErrStall)
	}
	if tr.Stats().Stalls != 1 || tr.Stats().Requests != 3 {
		t.Errorf("Stats() = %+v, want 3 requests and 1 stall", tr.Stats())
	}

	// Unplugging stops recording and switches the channels off.
	if err := tr.Detach(); err != nil {
		t.Fatalf("Detach() error = %v", err)
	}
	if r.session.State() != capture.StateIdle {
		t.Errorf("State() after detach = %v, want Idle", r.session.State())
	}
	if r.tone.Active() {
		t.Error("tone active after detach")
	}
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func TestTransportDetachDropsPendingStart(t *testing.T) {
	r := newRig(t)
	tr := r.transport

	tr.Attach()
	if err := tr.SetInterface(testFunctionConfig.StreamingInterface, 1); err != nil {
		t.Fatalf("SetInterface() error = %v", err)
	}
	// Unplugged before the first feed interval.
	if err := tr.Detach(); err != nil {
		t.Fatalf("Detach() error = %v", err)
	}
	if r.session.State() != capture.StateIdle {
		t.Fatalf("State() after detach = %v, want Idle", r.session.State())
	}

	// The new host never selects a streaming setting.
	tr.Attach()
	if err := tr.Tick(); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if r.session.State() != capture.StateIdle {
		t.Errorf("State() after reattach = %v, want Idle", r.session.State())
	}
	if r.tone.Active() || r.tone.Activations() != 0 {
		t.Errorf("tone active = %v after %d activations, want inactive", r.tone.Active(), r.tone.Activations())
	}
	if len(r.sink.packets) != 0 {
		t.Errorf("sink got %d packets, want 0", len(r.sink.packets))
	}
}
