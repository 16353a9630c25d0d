package sim

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ardnew/usbmic/pkg"
	"github.com/ardnew/usbmic/uac"
)

// Step is one host action of a [Script]. Exactly one of Attach, Detach, Alt
// or Request is set.
type Step struct {
	// At is the offset from the start of playback.
	At time.Duration `yaml:"at"`

	Attach bool `yaml:"attach,omitempty"`
	Detach bool `yaml:"detach,omitempty"`

	// Alt selects an alternate setting of the streaming interface.
	Alt *uint8 `yaml:"alt,omitempty"`

	// Request is a class request name such as "set_cur" or "get_res",
	// addressed to Selector ("mute", "volume", "sampling_frequency").
	Request  string `yaml:"request,omitempty"`
	Selector string `yaml:"selector,omitempty"`

	// Unit overrides the feature unit ID of interface requests.
	Unit *uint8 `yaml:"unit,omitempty"`

	// Data is the data stage of a SET request.
	Data []int `yaml:"data,omitempty"`

	// Length overrides wLength of a GET request.
	Length int `yaml:"length,omitempty"`
}

// Script is a timed sequence of host actions replayed against a transport.
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Validation errors.
var (
	ErrStepOrder    = errors.New("steps out of order")
	ErrStepAction   = errors.New("step must set exactly one action")
	ErrStepRequest  = errors.New("unknown request")
	ErrStepSelector = errors.New("unknown selector")
	ErrStepData     = errors.New("invalid data")
)

// ParseScript decodes and validates a YAML script.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScript reads a YAML script from path.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return ParseScript(data)
}

// DefaultScript attaches, starts recording at the first format, stops, and
// detaches after d.
func DefaultScript(d time.Duration) *Script {
	start, stop := uint8(1), uint8(0)
	return &Script{Steps: []Step{
		{At: 0, Attach: true},
		{At: 0, Alt: &start},
		{At: d, Alt: &stop},
		{At: d, Detach: true},
	}}
}

// Validate checks step ordering and that every step is well formed.
func (s *Script) Validate() error {
	var last time.Duration
	for i := range s.Steps {
		step := &s.Steps[i]
		if step.At < last {
			return fmt.Errorf("step %d at %s: %w", i, step.At, ErrStepOrder)
		}
		last = step.At

		if err := step.validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func (s *Step) validate() error {
	actions := 0
	for _, set := range []bool{s.Attach, s.Detach, s.Alt != nil, s.Request != ""} {
		if set {
			actions++
		}
	}
	if actions != 1 {
		return ErrStepAction
	}
	if s.Request == "" {
		return nil
	}

	request, ok := uac.RequestForName(s.Request)
	if !ok {
		return fmt.Errorf("%q: %w", s.Request, ErrStepRequest)
	}
	if _, ok := uac.ParseSelector(s.Selector); !ok {
		return fmt.Errorf("%q: %w", s.Selector, ErrStepSelector)
	}
	if len(s.Data) > uac.MaxControlData || s.Length < 0 || s.Length > uac.MaxControlData {
		return ErrStepData
	}
	if uac.IsGetRequest(request) && len(s.Data) > 0 {
		return fmt.Errorf("%s carries no data: %w", s.Request, ErrStepData)
	}
	for _, b := range s.Data {
		if b < 0 || b > 0xFF {
			return fmt.Errorf("byte %d: %w", b, ErrStepData)
		}
	}
	return nil
}

// Play replays the script against t in real time. Request stalls and
// requests while detached are logged and do not stop playback. It returns
// nil when every step ran or ctx is done.
func (s *Script) Play(ctx context.Context, t *Transport) error {
	begin := time.Now()

	for i := range s.Steps {
		step := &s.Steps[i]
		if wait := time.Until(begin.Add(step.At)); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
		}
		if ctx.Err() != nil {
			return nil
		}

		err := step.Apply(t)
		switch {
		case err == nil:
		case errors.Is(err, pkg.ErrStall), errors.Is(err, pkg.ErrNotAttached):
			pkg.LogWarn(pkg.ComponentTransport, "host step rejected",
				"step", i,
				"error", err)
		default:
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

// Apply performs the step's action on t immediately.
func (s *Step) Apply(t *Transport) error {
	switch {
	case s.Attach:
		t.Attach()
		return nil
	case s.Detach:
		return t.Detach()
	case s.Alt != nil:
		return t.SetInterface(t.Function().Config().StreamingInterface, *s.Alt)
	case s.Request != "":
		return s.request(t)
	default:
		return ErrStepAction
	}
}

func (s *Step) request(t *Transport) error {
	request, ok := uac.RequestForName(s.Request)
	if !ok {
		return ErrStepRequest
	}
	selector, ok := uac.ParseSelector(s.Selector)
	if !ok {
		return ErrStepSelector
	}

	var data [uac.MaxControlData]byte
	for i, b := range s.Data {
		data[i] = byte(b)
	}
	length := uint16(len(s.Data))
	if uac.IsGetRequest(request) {
		length = uint16(s.Length)
		if length == 0 {
			length = controlWidth(selector)
		}
	}

	cfg := t.Function().Config()
	unit := cfg.FeatureUnit
	if s.Unit != nil {
		unit = *s.Unit
	}

	var setup uac.SetupPacket
	cs, recipient := selector.WireCode()
	if recipient == uac.RequestRecipientEndpoint {
		uac.EndpointSetup(&setup, request, cs, cfg.Endpoint, length)
	} else {
		uac.FeatureUnitSetup(&setup, request, cs, 0, unit, cfg.ControlInterface, length)
	}

	resp, err := t.Control(&setup, data[:len(s.Data)])
	if err != nil {
		return fmt.Errorf("%s %s: %w", s.Request, s.Selector, err)
	}
	pkg.LogInfo(pkg.ComponentControl, "host request",
		"setup", setup.String(),
		"selector", selector.String(),
		"response", fmt.Sprintf("% X", resp))
	return nil
}

// controlWidth returns the wire width of a control's value.
func controlWidth(selector uac.Selector) uint16 {
	switch selector {
	case uac.SelectorMute:
		return uac.MuteSize
	case uac.SelectorSamplingFrequency:
		return uac.SamplingFreqSize
	default:
		return uac.VolumeSize
	}
}
