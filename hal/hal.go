package hal

import "fmt"

// Channel identifies a capture channel of the sample source.
type Channel uint8

// Stereo capture channels.
const (
	ChannelLeft  Channel = 0
	ChannelRight Channel = 1
)

// String returns the channel name.
func (c Channel) String() string {
	switch c {
	case ChannelLeft:
		return "left"
	case ChannelRight:
		return "right"
	default:
		return fmt.Sprintf("channel(%d)", uint8(c))
	}
}

// SampleSource delivers raw sample words on demand, like a PDM/PCM or I2S
// receive FIFO.
//
// ReadWord is called from the feed context and must not block or allocate.
// It always returns a word once the channel is activated; there is no
// back-pressure signal. Only the low 16 bits are used by the capture path.
type SampleSource interface {
	ReadWord(ch Channel) uint32
}

// ChannelController switches the capture channels of the sample source on
// and off.
//
// Both methods must be idempotent: the capture path may deactivate channels
// that are already inactive when a stop races with a start.
type ChannelController interface {
	ActivateChannels()
	DeactivateChannels()
}

// Microphone is a sample source that owns its channel lifecycle, as a
// PDM/PCM block does.
type Microphone interface {
	SampleSource
	ChannelController
}
