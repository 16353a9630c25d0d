// Package hal defines the hardware boundary of the capture path.
//
// Peripheral bring-up (clock trees, PDM/PCM decimation filters, FIFO trigger
// levels) happens outside this module. What remains is the narrow surface the
// capture core needs at run time:
//
//   - [SampleSource] returns one sample word for a channel
//   - [ChannelController] activates and deactivates the capture channels
//
// A software implementation for simulation and testing is available in
// [github.com/ardnew/usbmic/hal/sim].
package hal
