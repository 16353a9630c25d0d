package sim

import (
	"math"
	"sync/atomic"

	"github.com/ardnew/usbmic/hal"
	"github.com/ardnew/usbmic/pkg"
)

// ToneConfig configures a [Tone].
type ToneConfig struct {
	LeftHz     float64 // Left channel frequency
	RightHz    float64 // Right channel frequency
	Amplitude  float64 // Peak amplitude, 0 to 1 of full scale
	SampleRate uint32  // Rate at which words are consumed
}

// Tone is a stereo sine generator standing in for a PDM/PCM receive FIFO.
// While the channels are inactive every read returns 0, as an idle FIFO
// does.
//
// ReadWord and ActivateChannels are called from the feed context only.
// DeactivateChannels may be called from the control context.
type Tone struct {
	cfg   ToneConfig
	step  [2]float64
	phase [2]float64

	active        atomic.Bool
	reads         atomic.Uint64
	activations   atomic.Uint64
	deactivations atomic.Uint64
}

// NewTone creates an inactive tone source.
func NewTone(cfg ToneConfig) (*Tone, error) {
	if cfg.SampleRate == 0 || cfg.Amplitude < 0 || cfg.Amplitude > 1 {
		return nil, pkg.ErrInvalidParameter
	}
	nyquist := float64(cfg.SampleRate) / 2
	if cfg.LeftHz < 0 || cfg.LeftHz >= nyquist || cfg.RightHz < 0 || cfg.RightHz >= nyquist {
		return nil, pkg.ErrInvalidParameter
	}

	t := &Tone{cfg: cfg}
	t.step[hal.ChannelLeft] = 2 * math.Pi * cfg.LeftHz / float64(cfg.SampleRate)
	t.step[hal.ChannelRight] = 2 * math.Pi * cfg.RightHz / float64(cfg.SampleRate)
	return t, nil
}

// Config returns the tone configuration.
func (t *Tone) Config() ToneConfig {
	return t.cfg
}

// ReadWord returns the next 16-bit sample of channel ch.
func (t *Tone) ReadWord(ch hal.Channel) uint32 {
	t.reads.Add(1)
	if !t.active.Load() || int(ch) >= len(t.phase) {
		return 0
	}
	v := int16(math.Round(t.cfg.Amplitude * math.MaxInt16 * math.Sin(t.phase[ch])))
	t.phase[ch] += t.step[ch]
	if t.phase[ch] >= 2*math.Pi {
		t.phase[ch] -= 2 * math.Pi
	}
	return uint32(uint16(v))
}

// ActivateChannels starts both channels from phase zero.
func (t *Tone) ActivateChannels() {
	t.phase = [2]float64{}
	t.active.Store(true)
	t.activations.Add(1)
	pkg.LogDebug(pkg.ComponentSource, "channels activated",
		"leftHz", t.cfg.LeftHz,
		"rightHz", t.cfg.RightHz)
}

// DeactivateChannels stops both channels.
func (t *Tone) DeactivateChannels() {
	if t.active.Swap(false) {
		pkg.LogDebug(pkg.ComponentSource, "channels deactivated")
	}
	t.deactivations.Add(1)
}

// Active reports whether the channels are active.
func (t *Tone) Active() bool {
	return t.active.Load()
}

// Reads returns the number of ReadWord calls.
func (t *Tone) Reads() uint64 {
	return t.reads.Load()
}

// Activations returns the number of ActivateChannels calls.
func (t *Tone) Activations() uint64 {
	return t.activations.Load()
}

// Deactivations returns the number of DeactivateChannels calls.
func (t *Tone) Deactivations() uint64 {
	return t.deactivations.Load()
}
