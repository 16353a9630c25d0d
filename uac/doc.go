// Package uac implements the USB Audio Class 1.0 wire layer of a capture-only
// microphone function.
//
// It sits between a USB device stack and a [ControlHandler] (normally a
// [github.com/ardnew/usbmic/capture.Session]) and translates what the stack
// sees on EP0 into audio function events:
//
//   - SET_INTERFACE on the streaming interface becomes [EventRecordStart]
//     (alternate setting != 0) or [EventRecordStop] (alternate setting 0)
//   - Class requests become SET_CUR/GET_CUR/GET_MIN/... events with the
//     addressed unit and a recipient-resolved [Selector]
//   - A false return from the handler becomes [pkg.ErrStall]
//
// # Wire widths
//
// Control values have fixed widths regardless of representation: mute is 1
// byte, volume 2 bytes (signed 1/256 dB, little-endian), sampling frequency 3
// bytes (Hz, little-endian). See [PutUint24] and [Uint24].
//
// # Descriptors
//
// The package also encodes the audio streaming descriptors that advertise the
// supported formats ([FormatTypeIDescriptor], [ASGeneralDescriptor],
// [AudioEndpointDescriptor], [IsoEndpointDescriptor]) using caller-provided
// buffers:
//
//	var d uac.FormatTypeIDescriptor
//	d.NrChannels, d.SubframeSize, d.BitResolution = 2, 2, 16
//	d.AddSampleRate(48000)
//	n := d.MarshalTo(buf[:])
package uac
