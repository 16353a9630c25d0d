package uac

import (
	"encoding/binary"
	"fmt"

	"github.com/ardnew/usbmic/pkg"
)

// SetupPacket represents an 8-byte USB SETUP packet carrying an audio class
// request.
type SetupPacket struct {
	RequestType uint8  // bmRequestType: direction, type, recipient
	Request     uint8  // bRequest: class request code
	Value       uint16 // wValue: control selector (high), channel (low)
	Index       uint16 // wIndex: unit ID (high) and interface, or endpoint
	Length      uint16 // wLength: parameter block size
}

// SetupPacketSize is the size of a USB SETUP packet in bytes.
const SetupPacketSize = 8

// ParseSetupPacket parses a setup packet from 8 bytes into out.
func ParseSetupPacket(data []byte, out *SetupPacket) error {
	if len(data) < SetupPacketSize {
		return pkg.ErrSetupPacketTooShort
	}
	out.RequestType = data[0]
	out.Request = data[1]
	out.Value = binary.LittleEndian.Uint16(data[2:4])
	out.Index = binary.LittleEndian.Uint16(data[4:6])
	out.Length = binary.LittleEndian.Uint16(data[6:8])
	return nil
}

// MarshalTo serializes the setup packet to buf.
// Returns the number of bytes written (8), or 0 if buf is too small.
func (s *SetupPacket) MarshalTo(buf []byte) int {
	if len(buf) < SetupPacketSize {
		return 0
	}
	buf[0] = s.RequestType
	buf[1] = s.Request
	binary.LittleEndian.PutUint16(buf[2:4], s.Value)
	binary.LittleEndian.PutUint16(buf[4:6], s.Index)
	binary.LittleEndian.PutUint16(buf[6:8], s.Length)
	return SetupPacketSize
}

// IsDeviceToHost returns true if this is a device-to-host (GET) transfer.
func (s *SetupPacket) IsDeviceToHost() bool {
	return s.RequestType&RequestTypeDirectionMask == RequestDirectionDeviceToHost
}

// IsClass returns true if this is a class-specific request.
func (s *SetupPacket) IsClass() bool {
	return s.RequestType&RequestTypeTypeMask == RequestTypeClass
}

// Recipient returns the request recipient.
func (s *SetupPacket) Recipient() uint8 {
	return s.RequestType & RequestTypeRecipientMask
}

// ControlSelector returns the control selector from the wValue high byte.
func (s *SetupPacket) ControlSelector() uint8 {
	return uint8(s.Value >> 8)
}

// ChannelNumber returns the logical channel from the wValue low byte.
func (s *SetupPacket) ChannelNumber() uint8 {
	return uint8(s.Value)
}

// UnitID returns the addressed unit or terminal from the wIndex high byte.
func (s *SetupPacket) UnitID() uint8 {
	return uint8(s.Index >> 8)
}

// InterfaceNumber returns the interface number from the wIndex low byte.
func (s *SetupPacket) InterfaceNumber() uint8 {
	return uint8(s.Index)
}

// EndpointAddress returns the endpoint address from the wIndex low byte.
func (s *SetupPacket) EndpointAddress() uint8 {
	return uint8(s.Index)
}

// String returns a human-readable representation of the setup packet.
func (s *SetupPacket) String() string {
	dir := "OUT"
	if s.IsDeviceToHost() {
		dir = "IN"
	}
	recip := "Device"
	switch s.Recipient() {
	case RequestRecipientInterface:
		recip = "Interface"
	case RequestRecipientEndpoint:
		recip = "Endpoint"
	case RequestRecipientOther:
		recip = "Other"
	}
	return fmt.Sprintf("SETUP[%s %s] %s CS=0x%02X Index=0x%04X Length=%d",
		dir, recip, EventForRequest(s.Request), s.ControlSelector(), s.Index, s.Length)
}

func requestDirection(request uint8) uint8 {
	if IsGetRequest(request) {
		return RequestDirectionDeviceToHost
	}
	return RequestDirectionHostToDevice
}

// FeatureUnitSetup initializes out as a class request addressed to a feature
// unit control on the audio control interface. Channel 0 is the master
// channel.
func FeatureUnitSetup(out *SetupPacket, request, selector, channel, unit, iface uint8, length uint16) {
	out.RequestType = requestDirection(request) | RequestTypeClass | RequestRecipientInterface
	out.Request = request
	out.Value = uint16(selector)<<8 | uint16(channel)
	out.Index = uint16(unit)<<8 | uint16(iface)
	out.Length = length
}

// EndpointSetup initializes out as a class request addressed to an endpoint
// control such as the sampling frequency.
func EndpointSetup(out *SetupPacket, request, selector, endpoint uint8, length uint16) {
	out.RequestType = requestDirection(request) | RequestTypeClass | RequestRecipientEndpoint
	out.Request = request
	out.Value = uint16(selector) << 8
	out.Index = uint16(endpoint)
	out.Length = length
}
