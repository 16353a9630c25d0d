package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ardnew/usbmic/internal/config"
	"github.com/ardnew/usbmic/pkg"
	"github.com/ardnew/usbmic/pkg/prof"
)

var (
	cfg          *config.Config
	cfgFile      string
	envFile      string
	logFormat    string
	logFile      string
	verboseLevel int
	cpuProfile   string
	memProfile   string

	// Rotating log file, if any
	logCloser io.Closer
	profiler  *prof.Profiler
)

var rootCmd = &cobra.Command{
	Use:   "usbmic",
	Short: "Simulated USB Audio Class microphone",
	Long: `usbmic runs the capture path of a USB isochronous microphone on the
desktop. A stereo tone stands in for the PDM/PCM peripheral, a scripted host
drives alternate settings and class requests, and the isochronous stream is
written to a WAV or raw PCM file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile, envFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Flags override the config file
		if logFormat != "" {
			cfg.Log.Format = logFormat
		}
		if logFile != "" {
			cfg.Log.File = logFile
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logCloser = setupLogging(cfg, verboseLevel)
		pkg.LogDebug(pkg.ComponentConfig, "configuration loaded",
			"file", cfgFile,
			"formats", cfg.Device.Formats,
			"interval", cfg.Transport.Interval)

		profiler, err = startProfiler(cpuProfile, memProfile)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if profiler != nil {
			err = profiler.Stop()
		}
		if logCloser != nil {
			pkg.SetLogOutput(nil)
			err = errors.Join(err, logCloser.Close())
		}
		return err
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load USBMIC_* overrides from a .env file")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to a rotating file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&cpuProfile, "cpuprofile", "", "write a CPU profile to file")
	rootCmd.PersistentFlags().StringVar(&memProfile, "memprofile", "", "write an allocation profile to file on exit")
	rootCmd.PersistentFlags().IntVarP(&verboseLevel, "verbose", "v", 0, "verbose level: 0=config, 1=info, 2=debug")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(formatsCmd)
	rootCmd.AddCommand(configCmd)
}

// setupLogging configures the shared logger from the config and verbose
// level. It returns the log file to close on exit, or nil for stderr.
func setupLogging(c *config.Config, verbose int) io.Closer {
	level := c.LogLevel()
	switch {
	case verbose == 1:
		level = slog.LevelInfo
	case verbose >= 2:
		level = slog.LevelDebug
	}
	pkg.SetLogLevel(level)
	pkg.SetLogFormat(pkg.ParseLogFormat(c.Log.Format))

	if c.Log.File == "" {
		pkg.SetLogOutput(nil)
		return nil
	}
	rotator := &lumberjack.Logger{
		Filename:   config.ExpandPath(c.Log.File),
		MaxSize:    c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
	}
	pkg.SetLogOutput(rotator)
	return rotator
}

// startProfiler starts the profiles requested on the command line. It
// returns nil if none were requested.
func startProfiler(cpu, mem string) (*prof.Profiler, error) {
	if cpu == "" && mem == "" {
		return nil, nil
	}
	opts := prof.Options{CPU: config.ExpandPath(cpu)}
	if mem != "" {
		opts.Snapshots = map[prof.Profile]string{
			prof.ProfileAllocs: config.ExpandPath(mem),
		}
	}
	p, err := prof.Start(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start profiling: %w", err)
	}
	pkg.LogDebug(pkg.ComponentConfig, "profiling started", "cpu", cpu, "mem", mem)
	return p, nil
}
