package uac

import (
	"encoding/binary"

	"github.com/ardnew/usbmic/pkg"
)

// MaxDiscreteRates is the largest number of discrete sampling frequencies a
// format type descriptor carries.
const MaxDiscreteRates = 8

// FormatTypeIDescriptor is the class-specific Type I format descriptor of an
// audio streaming interface (USB Audio Formats 1.0 Table 2-1) with a discrete
// sampling frequency table.
type FormatTypeIDescriptor struct {
	NrChannels    uint8 // Number of physical channels
	SubframeSize  uint8 // Bytes per audio subframe
	BitResolution uint8 // Bits used in each subframe

	// Discrete sampling frequencies in Hz - fixed-size array for zero allocation
	rates     [MaxDiscreteRates]uint32
	rateCount int
}

// FormatTypeIDescriptorBaseSize is the size of the descriptor without its
// sampling frequency table.
const FormatTypeIDescriptorBaseSize = 8

// AddSampleRate appends a discrete sampling frequency.
func (d *FormatTypeIDescriptor) AddSampleRate(rate uint32) error {
	if rate == 0 || rate > MaxSampleRate {
		return pkg.ErrInvalidFormat
	}
	if d.rateCount >= MaxDiscreteRates {
		return pkg.ErrBufferTooSmall
	}
	d.rates[d.rateCount] = rate
	d.rateCount++
	return nil
}

// SampleRates returns the discrete sampling frequencies.
func (d *FormatTypeIDescriptor) SampleRates() []uint32 {
	return d.rates[:d.rateCount]
}

// Size returns the encoded length of the descriptor.
func (d *FormatTypeIDescriptor) Size() int {
	return FormatTypeIDescriptorBaseSize + SamplingFreqSize*d.rateCount
}

// MarshalTo writes the descriptor to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (d *FormatTypeIDescriptor) MarshalTo(buf []byte) int {
	n := d.Size()
	if len(buf) < n {
		return 0
	}
	buf[0] = byte(n)
	buf[1] = DescriptorTypeCSInterface
	buf[2] = ASSubtypeFormatType
	buf[3] = FormatTypeI
	buf[4] = d.NrChannels
	buf[5] = d.SubframeSize
	buf[6] = d.BitResolution
	buf[7] = byte(d.rateCount)
	for i, rate := range d.SampleRates() {
		PutUint24(buf[FormatTypeIDescriptorBaseSize+i*SamplingFreqSize:], rate)
	}
	return n
}

// ParseFormatTypeIDescriptor parses a discrete Type I format descriptor
// into out.
func ParseFormatTypeIDescriptor(data []byte, out *FormatTypeIDescriptor) error {
	if len(data) < FormatTypeIDescriptorBaseSize {
		return pkg.ErrDescriptorTooShort
	}
	if data[1] != DescriptorTypeCSInterface || data[2] != ASSubtypeFormatType || data[3] != FormatTypeI {
		return pkg.ErrDescriptorTypeMismatch
	}
	count := int(data[7])
	if count == 0 {
		// Continuous range (lower, upper) is not produced by this device.
		return pkg.ErrNotSupported
	}
	if count > MaxDiscreteRates {
		return pkg.ErrBufferTooSmall
	}
	if len(data) < FormatTypeIDescriptorBaseSize+count*SamplingFreqSize || int(data[0]) > len(data) {
		return pkg.ErrDescriptorTooShort
	}
	out.NrChannels = data[4]
	out.SubframeSize = data[5]
	out.BitResolution = data[6]
	out.rateCount = count
	for i := 0; i < count; i++ {
		out.rates[i] = Uint24(data[FormatTypeIDescriptorBaseSize+i*SamplingFreqSize:])
	}
	return nil
}

// ASGeneralDescriptor is the class-specific AS_GENERAL interface descriptor
// (USB Audio 1.0 Table 4-19).
type ASGeneralDescriptor struct {
	TerminalLink uint8  // Terminal ID the endpoint is connected to
	Delay        uint8  // Interface delay in frames
	FormatTag    uint16 // Audio data format (FormatTagPCM)
}

// ASGeneralDescriptorSize is the size of the AS_GENERAL descriptor.
const ASGeneralDescriptorSize = 7

// MarshalTo writes the descriptor to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (d *ASGeneralDescriptor) MarshalTo(buf []byte) int {
	if len(buf) < ASGeneralDescriptorSize {
		return 0
	}
	buf[0] = ASGeneralDescriptorSize
	buf[1] = DescriptorTypeCSInterface
	buf[2] = ASSubtypeGeneral
	buf[3] = d.TerminalLink
	buf[4] = d.Delay
	binary.LittleEndian.PutUint16(buf[5:7], d.FormatTag)
	return ASGeneralDescriptorSize
}

// AudioEndpointDescriptor is the standard audio streaming isochronous
// endpoint descriptor (USB Audio 1.0 Table 4-20), which extends the USB
// endpoint descriptor with bRefresh and bSynchAddress.
type AudioEndpointDescriptor struct {
	Address       uint8  // Endpoint address including direction bit
	Attributes    uint8  // Transfer type and synchronization type
	MaxPacketSize uint16 // Maximum packet size
	Interval      uint8  // Polling interval (1 = every frame at full speed)
	Refresh       uint8  // Reset to 0
	SynchAddress  uint8  // Synchronization endpoint, 0 if none
}

// AudioEndpointDescriptorSize is the size of the audio endpoint descriptor.
const AudioEndpointDescriptorSize = 9

// MarshalTo writes the descriptor to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (d *AudioEndpointDescriptor) MarshalTo(buf []byte) int {
	if len(buf) < AudioEndpointDescriptorSize {
		return 0
	}
	buf[0] = AudioEndpointDescriptorSize
	buf[1] = DescriptorTypeEndpoint
	buf[2] = d.Address
	buf[3] = d.Attributes
	binary.LittleEndian.PutUint16(buf[4:6], d.MaxPacketSize)
	buf[6] = d.Interval
	buf[7] = d.Refresh
	buf[8] = d.SynchAddress
	return AudioEndpointDescriptorSize
}

// Isochronous endpoint control attribute bits (bmAttributes of EP_GENERAL).
const (
	EPAttrSamplingFreq   = 0x01
	EPAttrPitch          = 0x02
	EPAttrMaxPacketsOnly = 0x80
)

// IsoEndpointDescriptor is the class-specific isochronous audio data endpoint
// descriptor (USB Audio 1.0 Table 4-21).
type IsoEndpointDescriptor struct {
	Attributes     uint8  // Controls supported (EPAttr*)
	LockDelayUnits uint8  // Units of LockDelay
	LockDelay      uint16 // Time to lock the internal clock
}

// IsoEndpointDescriptorSize is the size of the class-specific endpoint
// descriptor.
const IsoEndpointDescriptorSize = 7

// MarshalTo writes the descriptor to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (d *IsoEndpointDescriptor) MarshalTo(buf []byte) int {
	if len(buf) < IsoEndpointDescriptorSize {
		return 0
	}
	buf[0] = IsoEndpointDescriptorSize
	buf[1] = DescriptorTypeCSEndpoint
	buf[2] = EPSubtypeGeneral
	buf[3] = d.Attributes
	buf[4] = d.LockDelayUnits
	binary.LittleEndian.PutUint16(buf[5:7], d.LockDelay)
	return IsoEndpointDescriptorSize
}
