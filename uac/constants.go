package uac

// Audio class codes (USB Audio 1.0 Appendix A.1-A.3).
const (
	ClassAudio = 0x01 // Audio Interface Class

	SubclassAudioControl   = 0x01 // Audio Control interface
	SubclassAudioStreaming = 0x02 // Audio Streaming interface
	SubclassMIDIStreaming  = 0x03 // MIDI Streaming interface

	ProtocolNone = 0x00
)

// Class-specific request codes (USB Audio 1.0 Appendix A.9).
const (
	RequestSetCur  = 0x01
	RequestSetMin  = 0x02
	RequestSetMax  = 0x03
	RequestSetRes  = 0x04
	RequestSetMem  = 0x05
	RequestGetCur  = 0x81
	RequestGetMin  = 0x82
	RequestGetMax  = 0x83
	RequestGetRes  = 0x84
	RequestGetMem  = 0x85
	RequestGetStat = 0xFF
)

// Feature unit control selectors (USB Audio 1.0 Appendix A.10.2).
const (
	FUMuteControl             = 0x01
	FUVolumeControl           = 0x02
	FUBassControl             = 0x03
	FUMidControl              = 0x04
	FUTrebleControl           = 0x05
	FUGraphicEqualizerControl = 0x06
	FUAutomaticGainControl    = 0x07
	FUDelayControl            = 0x08
	FUBassBoostControl        = 0x09
	FULoudnessControl         = 0x0A
)

// Endpoint control selectors (USB Audio 1.0 Appendix A.10.5).
const (
	EPSamplingFreqControl = 0x01
	EPPitchControl        = 0x02
)

// Control value widths in bytes. These are wire-exact and independent of
// any internal representation.
const (
	MuteSize         = 1
	VolumeSize       = 2
	SamplingFreqSize = 3
)

// MaxSampleRate is the largest rate a 24-bit sampling frequency field holds.
const MaxSampleRate = 0xFFFFFF

// Descriptor types and subtypes (USB Audio 1.0 Appendix A.4-A.8).
const (
	DescriptorTypeEndpoint    = 0x05
	DescriptorTypeCSInterface = 0x24 // Class-specific interface
	DescriptorTypeCSEndpoint  = 0x25 // Class-specific endpoint

	ASSubtypeGeneral    = 0x01
	ASSubtypeFormatType = 0x02

	EPSubtypeGeneral = 0x01

	FormatTypeI = 0x01

	FormatTagPCM = 0x0001
)

// Request type masks (USB 2.0 Table 9-2).
const (
	RequestTypeDirectionMask = 0x80 // Direction bit mask
	RequestTypeTypeMask      = 0x60 // Type bits mask
	RequestTypeRecipientMask = 0x1F // Recipient bits mask
)

// Request type direction values.
const (
	RequestDirectionHostToDevice = 0x00
	RequestDirectionDeviceToHost = 0x80
)

// Request type values.
const (
	RequestTypeStandard = 0x00
	RequestTypeClass    = 0x20
	RequestTypeVendor   = 0x40
)

// Request recipient values.
const (
	RequestRecipientDevice    = 0x00
	RequestRecipientInterface = 0x01
	RequestRecipientEndpoint  = 0x02
	RequestRecipientOther     = 0x03
)

// Endpoint attribute bits used by the isochronous IN endpoint.
const (
	EndpointDirectionIn     = 0x80
	EndpointTypeIsochronous = 0x01
	IsoSyncAsync            = 0x04
	IsoSyncAdaptive         = 0x08
	IsoSyncSync             = 0x0C
)

// MaxControlData is the largest class request data stage handled.
const MaxControlData = 64

// PutUint24 stores v into b[0:3], least-significant byte first.
func PutUint24(b []byte, v uint32) {
	_ = b[2]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

// Uint24 decodes a little-endian 24-bit value from b[0:3].
func Uint24(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}
