// Command usbmic runs a simulated USB Audio Class microphone: a tone source
// feeding the capture core on the isochronous cadence, driven by a scripted
// host, with the stream written to a WAV or raw PCM file.
package main

func main() {
	Execute()
}
