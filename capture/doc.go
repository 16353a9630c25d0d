// Package capture implements the real-time core of a USB Audio Class
// microphone: the path that moves PCM words from a sample source into the
// isochronous IN packet, and the control requests that steer it.
//
// # Session
//
// A [Session] has two entry points, one per execution context:
//
//   - [Session.OnFeedInterval] runs every isochronous interval and returns
//     the packet for the upcoming interval
//   - [Session.OnControlEvent] runs when the host issues a class request or
//     changes the streaming interface's alternate setting
//
// Neither blocks nor allocates.
//
// # Buffering
//
// [BufferPool] owns exactly two fixed buffers. Each recording interval the
// pool toggles to the buffer not used last time, fills it with one left and
// one right word per frame, and hands it to the transport. The packet sent
// during interval N was therefore filled during interval N-1.
//
// The first interval after recording starts hands off a cleared buffer, so a
// start always begins with one packet of silence.
//
// # Recording state
//
//	Idle --RecordStart--> StartRequested --feed--> Recording
//	  ^                                               |
//	  +------------------RecordStop-------------------+
//
// Channels are activated by the feed interval that enters Recording and
// deactivated synchronously by the stop.
//
// # Mute
//
// [MuteGate] substitutes a static silent buffer while muted. Filling
// continues, so unmuting resumes live audio on the next interval.
package capture
