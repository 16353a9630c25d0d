package uac

import (
	"sync/atomic"

	"github.com/ardnew/usbmic/pkg"
)

// ControlHandler receives audio function events. len(buf) is the request
// parameter block length; GET events write their response into buf. It
// returns false when the event or selector is unsupported and the request
// must be stalled.
type ControlHandler interface {
	OnControlEvent(event Event, unit uint8, selector Selector, buf []byte, alt uint8) bool
}

// FunctionConfig describes where the microphone function lives in the
// device's configuration.
type FunctionConfig struct {
	ControlInterface   uint8 // Audio control interface number
	StreamingInterface uint8 // Audio streaming interface carrying the IN endpoint
	FeatureUnit        uint8 // Feature unit ID holding mute and volume
	Endpoint           uint8 // Isochronous IN endpoint address
}

// Function is the audio class side of the transport. It decodes class
// requests, tracks the streaming interface's alternate setting and turns
// alternate setting changes into record start and stop events.
//
// HandleSetup and SetAlternate run on the control context and must not be
// called concurrently with each other; the USB stack serializes EP0.
type Function struct {
	cfg     FunctionConfig
	handler ControlHandler

	alt atomic.Uint32

	// Response buffer for GET requests
	respBuf [MaxControlData]byte
}

// NewFunction creates a function forwarding decoded events to handler.
func NewFunction(cfg FunctionConfig, handler ControlHandler) *Function {
	return &Function{cfg: cfg, handler: handler}
}

// Config returns the function configuration.
func (f *Function) Config() FunctionConfig {
	return f.cfg
}

// Alternate returns the current alternate setting of the streaming interface.
func (f *Function) Alternate() uint8 {
	return uint8(f.alt.Load())
}

// SetAlternate handles SET_INTERFACE. Selecting alternate setting 0 on the
// streaming interface stops recording; any other setting starts it.
// Requests for other interfaces are ignored.
func (f *Function) SetAlternate(iface, alt uint8) error {
	if iface != f.cfg.StreamingInterface {
		return nil
	}
	f.alt.Store(uint32(alt))

	event := EventRecordStart
	if alt == 0 {
		event = EventRecordStop
	}

	pkg.LogDebug(pkg.ComponentUAC, "streaming alternate setting",
		"interface", iface,
		"alt", alt,
		"event", event.String())

	if !f.handler.OnControlEvent(event, f.cfg.FeatureUnit, SelectorUndefined, nil, alt) {
		return pkg.ErrStall
	}
	return nil
}

// HandleSetup processes a class-specific request. For host-to-device
// requests data holds the data stage. For device-to-host requests it returns
// the bytes to send; they alias an internal buffer valid until the next call.
// Unsupported requests return pkg.ErrStall.
func (f *Function) HandleSetup(setup *SetupPacket, data []byte) ([]byte, error) {
	if !setup.IsClass() {
		return nil, pkg.ErrNotClassRequest
	}

	var (
		unit     uint8
		selector Selector
	)
	switch setup.Recipient() {
	case RequestRecipientInterface:
		// Units live on the audio control interface only.
		if setup.InterfaceNumber() != f.cfg.ControlInterface {
			return nil, pkg.ErrStall
		}
		unit = setup.UnitID()
		selector = FeatureUnitSelector(setup.ControlSelector())
	case RequestRecipientEndpoint:
		// Endpoint controls carry no unit ID; requests to our endpoint are
		// attributed to the function's feature unit.
		if setup.EndpointAddress() == f.cfg.Endpoint {
			unit = f.cfg.FeatureUnit
		}
		selector = EndpointSelector(setup.ControlSelector())
	default:
		return nil, pkg.ErrStall
	}

	event := EventForRequest(setup.Request)
	length := int(setup.Length)

	var buf []byte
	if setup.IsDeviceToHost() {
		if length > len(f.respBuf) {
			length = len(f.respBuf)
		}
		buf = f.respBuf[:length]
		clear(buf)
	} else {
		if length > len(data) {
			length = len(data)
		}
		buf = data[:length]
	}

	if !f.handler.OnControlEvent(event, unit, selector, buf, f.Alternate()) {
		pkg.LogDebug(pkg.ComponentUAC, "stalling class request",
			"event", event.String(),
			"selector", selector.String(),
			"unit", unit)
		return nil, pkg.ErrStall
	}

	if setup.IsDeviceToHost() {
		return buf, nil
	}
	return nil, nil
}
