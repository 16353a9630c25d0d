// Package sim provides software stand-ins for the hardware and USB stack
// around the capture core, so a complete microphone can run on a desktop.
//
//   - [Tone] is a stereo sine [hal.Microphone]
//   - [Transport] drives the isochronous feed cadence, routes host class
//     requests to a [uac.Function] and reports missed feed deadlines
//   - [RawSink] and [WAVSink] consume the packets the host would receive
//   - [Script] replays timed host actions (attach, alternate settings, class
//     requests) from YAML
//
// # Usage
//
//	tone, _ := sim.NewTone(sim.ToneConfig{LeftHz: 440, RightHz: 660, Amplitude: 0.5, SampleRate: 48000})
//	session, _ := capture.NewSession(capture.Config{Formats: formats, FeatureUnit: 2}, tone, tone)
//	fn := uac.NewFunction(uac.FunctionConfig{StreamingInterface: 1, FeatureUnit: 2, Endpoint: 0x81}, session)
//	tr, _ := sim.NewTransport(sim.TransportConfig{Interval: time.Millisecond}, session, fn, sink)
//
//	go tr.Run(ctx)
//	sim.DefaultScript(5 * time.Second).Play(ctx, tr)
package sim
