package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ardnew/usbmic/capture"
	"github.com/ardnew/usbmic/hal/sim"
	"github.com/ardnew/usbmic/internal/config"
	"github.com/ardnew/usbmic/pkg"
	"github.com/ardnew/usbmic/uac"
)

var (
	scriptFile  string
	outFile     string
	runDuration time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the microphone against a scripted host",
	Long: `Run attaches the simulated microphone to a scripted host and streams
the isochronous packets to --out.

Without --script the host selects alternate setting 1, records for
--duration, then selects alternate setting 0 and detaches. A missed feed
deadline ends the run with an error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		script := sim.DefaultScript(runDuration)
		if scriptFile != "" {
			var err error
			if script, err = sim.LoadScript(scriptFile); err != nil {
				return err
			}
		}
		return runMicrophone(cmd.Context(), cfg, script, outFile, cmd.ErrOrStderr())
	},
}

func init() {
	runCmd.Flags().StringVarP(&scriptFile, "script", "s", "", "host script (YAML)")
	runCmd.Flags().StringVarP(&outFile, "out", "o", "", "output: .wav file, raw PCM file, or - for stdout (default discards)")
	runCmd.Flags().DurationVarP(&runDuration, "duration", "d", 5*time.Second, "recording time of the default script")
}

func runMicrophone(ctx context.Context, c *config.Config, script *sim.Script, out string, report io.Writer) error {
	sessionCfg, err := c.Session()
	if err != nil {
		return err
	}
	rate := sessionCfg.Formats.MaxSampleRate()

	tone, err := sim.NewTone(sim.ToneConfig{
		LeftHz:     c.Source.LeftHz,
		RightHz:    c.Source.RightHz,
		Amplitude:  c.Source.Amplitude,
		SampleRate: rate,
	})
	if err != nil {
		return fmt.Errorf("tone source: %w", err)
	}

	session, err := capture.NewSession(sessionCfg, tone, tone)
	if err != nil {
		return fmt.Errorf("capture session: %w", err)
	}

	sink, closeSink, err := openSink(out, rate)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fn := uac.NewFunction(c.Function(), session)
	tr, err := sim.NewTransport(sim.TransportConfig{
		Interval: c.Transport.Interval,
		Budget:   c.Transport.Budget,
		OnFault:  func(error) { cancel() },
	}, session, fn, sink)
	if err != nil {
		closeSink()
		return fmt.Errorf("transport: %w", err)
	}

	pkg.LogInfo(pkg.ComponentSession, "microphone ready",
		"session", session.ID().String(),
		"packetSize", session.PacketSize(),
		"steps", len(script.Steps),
		"out", out)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return tr.Run(gctx)
	})
	g.Go(func() error {
		// The feed loop ends once the host is done.
		defer cancel()
		return script.Play(gctx, tr)
	})
	runErr := g.Wait()

	// Unplug so the channels are off whatever the script left behind.
	if err := tr.Detach(); err != nil && runErr == nil {
		runErr = err
	}
	if err := closeSink(); err != nil && runErr == nil {
		runErr = fmt.Errorf("close output: %w", err)
	}

	ts, ss := tr.Stats(), session.Stats()
	fmt.Fprintf(report, "session %s: %d intervals, %d packets (%d silenced), %d fills, %d requests, %d stalls, %d faults\n",
		session.ID(), ts.Intervals, ss.Packets, ss.Silenced, ss.Fills, ts.Requests, ts.Stalls, ts.Faults)

	return runErr
}

// openSink opens the packet sink for out. It returns a closer that finalizes
// the output.
func openSink(out string, rate uint32) (sim.PacketSink, func() error, error) {
	nop := func() error { return nil }

	switch {
	case out == "":
		return sim.DiscardSink{}, nop, nil
	case out == "-":
		return sim.NewRawSink(os.Stdout), nop, nil
	}

	f, err := os.Create(config.ExpandPath(out))
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}

	if strings.EqualFold(filepath.Ext(out), ".wav") {
		sink, err := sim.NewWAVSink(f, rate)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		return sink, func() error {
			if err := sink.Close(); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		}, nil
	}

	return sim.NewRawSink(f), f.Close, nil
}
