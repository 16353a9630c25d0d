package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ardnew/usbmic/capture"
	"github.com/ardnew/usbmic/internal/config"
	"github.com/ardnew/usbmic/uac"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "Show the format table and streaming descriptors",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printFormats(cmd.OutOrStdout(), cfg)
	},
}

func printFormats(w io.Writer, c *config.Config) error {
	formats, err := c.FormatTable()
	if err != nil {
		return err
	}
	interval := c.Transport.Interval
	frames := capture.FramesPerInterval(formats.MaxSampleRate(), interval)
	packetSize := frames * capture.FrameSize

	fmt.Fprintf(w, "%-5s  %-3s  %s\n", "INDEX", "ALT", "RATE")
	for i := 0; i < formats.Len(); i++ {
		alt := "-"
		if _, ok := formats.IndexForAlternate(uint8(i + 1)); ok {
			alt = fmt.Sprint(i + 1)
		}
		fmt.Fprintf(w, "%-5d  %-3s  %d Hz\n", i, alt, formats.At(i).SampleRate)
	}
	fmt.Fprintf(w, "\npacket: %d frames, %d bytes every %s\n", frames, packetSize, interval)

	var buf [uac.FormatTypeIDescriptorBaseSize + 3*uac.MaxDiscreteRates]byte

	format := formats.Descriptor()
	n := format.MarshalTo(buf[:])
	fmt.Fprintf(w, "format type I:  % X\n", buf[:n])

	general := uac.ASGeneralDescriptor{TerminalLink: 1, FormatTag: uac.FormatTagPCM}
	n = general.MarshalTo(buf[:])
	fmt.Fprintf(w, "as general:     % X\n", buf[:n])

	ep := uac.AudioEndpointDescriptor{
		Address:       c.Device.Endpoint,
		Attributes:    uac.EndpointTypeIsochronous | uac.IsoSyncAsync,
		MaxPacketSize: uint16(packetSize),
		Interval:      bInterval(interval),
	}
	n = ep.MarshalTo(buf[:])
	fmt.Fprintf(w, "endpoint:       % X\n", buf[:n])

	iso := uac.IsoEndpointDescriptor{Attributes: uac.EPAttrSamplingFreq}
	n = iso.MarshalTo(buf[:])
	fmt.Fprintf(w, "iso endpoint:   % X\n", buf[:n])

	return nil
}

// bInterval returns the full-speed bInterval for an isochronous interval in
// whole frames.
func bInterval(interval time.Duration) uint8 {
	frames := interval / time.Millisecond
	switch {
	case frames < 1:
		return 1
	case frames > 0xFF:
		return 0xFF
	default:
		return uint8(frames)
	}
}
