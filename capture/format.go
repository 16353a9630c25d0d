package capture

import (
	"fmt"
	"time"

	"github.com/ardnew/usbmic/pkg"
	"github.com/ardnew/usbmic/uac"
)

// MaxFormats is the maximum number of formats a table holds.
const MaxFormats = uac.MaxDiscreteRates

// Format describes one supported streaming format.
type Format struct {
	SampleRate uint32 // Hz, 24-bit on the wire
}

// FormatTable maps format indices to supported formats. It is a value type
// and never changes after NewFormatTable returns.
type FormatTable struct {
	formats [MaxFormats]Format
	count   int
}

// NewFormatTable builds a table from sample rates in alternate setting order.
func NewFormatTable(rates ...uint32) (FormatTable, error) {
	var t FormatTable
	if len(rates) == 0 || len(rates) > MaxFormats {
		return t, pkg.ErrInvalidParameter
	}
	for i, rate := range rates {
		if rate == 0 || rate > uac.MaxSampleRate {
			return FormatTable{}, pkg.ErrInvalidFormat
		}
		t.formats[i] = Format{SampleRate: rate}
	}
	t.count = len(rates)
	return t, nil
}

// Len returns the number of formats.
func (t FormatTable) Len() int {
	return t.count
}

// At returns the format at index i.
func (t FormatTable) At(i int) Format {
	if i < 0 || i >= t.count {
		return Format{}
	}
	return t.formats[i]
}

// MaxSampleRate returns the highest sample rate in the table.
func (t FormatTable) MaxSampleRate() uint32 {
	var max uint32
	for i := 0; i < t.count; i++ {
		if t.formats[i].SampleRate > max {
			max = t.formats[i].SampleRate
		}
	}
	return max
}

// IndexForAlternate returns the format index selected by an alternate
// setting. Only 1 <= alt < Len() is accepted; the index is alt-1.
func (t FormatTable) IndexForAlternate(alt uint8) (int, bool) {
	if alt == 0 || int(alt) >= t.count {
		return 0, false
	}
	return int(alt) - 1, true
}

// Descriptor returns the Type I format descriptor advertising every rate in
// the table for the capture path's interleaved 16-bit stereo frames.
func (t FormatTable) Descriptor() uac.FormatTypeIDescriptor {
	d := uac.FormatTypeIDescriptor{
		NrChannels:    ChannelsPerFrame,
		SubframeSize:  WordSize,
		BitResolution: WordSize * 8,
	}
	for i := 0; i < t.count; i++ {
		// Rates were validated by NewFormatTable and the table fits.
		_ = d.AddSampleRate(t.formats[i].SampleRate)
	}
	return d
}

// CheckInterval reports an error unless every rate in the table yields a
// whole number of frames per interval. A rate such as 44100 Hz at 1 ms would
// lose the fractional frame on every packet.
func (t FormatTable) CheckInterval(interval time.Duration) error {
	if interval <= 0 {
		return pkg.ErrInvalidParameter
	}
	for i := 0; i < t.count; i++ {
		rate := t.formats[i].SampleRate
		if uint64(rate)*uint64(interval)%uint64(time.Second) != 0 {
			return fmt.Errorf("%d Hz at %v leaves a fractional frame: %w", rate, interval, pkg.ErrInvalidFormat)
		}
	}
	return nil
}

// FramesPerInterval returns the number of whole frames captured at rate
// during one isochronous interval.
func FramesPerInterval(rate uint32, interval time.Duration) int {
	if interval <= 0 {
		return 0
	}
	return int(uint64(rate) * uint64(interval) / uint64(time.Second))
}
