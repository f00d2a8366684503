// SPDX-License-Identifier: MIT
//
// Package cmd wires the command line onto the pipeline: stft and energy
// process recorded files, sensor runs against a live receiver.
package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"iqspect/internal/config"
	"iqspect/internal/energy"
	"iqspect/internal/input"
	applog "iqspect/internal/log"
	"iqspect/internal/record"
	"iqspect/internal/stft"
	"iqspect/internal/window"
	"iqspect/pkg/build"
)

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
	logLevel   string
}

// Execute parses the command line and runs the selected mode. Errors
// come back to main, which owns the exit code.
func Execute() error {
	buildInfo := build.GetBuildFlags()
	rf := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         build.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.PersistentFlags().StringVar(&rf.configPath, "config", "",
		"Path to a YAML config file (default: iqspect.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&rf.logLevel, "log-level", "",
		"Logging level: debug, info, warn, error")

	rootCmd.AddCommand(newSTFTCmd(rf), newSensorCmd(rf), newEnergyCmd(rf), newRecordCmd(rf))

	rootCmd.SetArgs(os.Args[1:])
	return rootCmd.Execute()
}

// loadConfig builds the effective configuration: defaults, then the
// YAML file, then environment, then root flags.
func loadConfig(cmd *cobra.Command, rf *rootFlags) (*config.Config, error) {
	cfg, err := config.LoadConfig(rf.configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = rf.logLevel
	}
	level, ok := applog.ParseLevel(cfg.LogLevel)
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	applog.SetLevel(level)
	return cfg, nil
}

func newSTFTCmd(rf *rootFlags) *cobra.Command {
	var (
		inputPath  string
		outputPath string
		windowPath string
		fftSize    int
		overlap    int
		workers    int
		waitMode   string
		planMode   string
	)

	cmd := &cobra.Command{
		Use:   "stft",
		Short: "Transform a recorded I/Q file into overlapped spectral frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, rf)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("input") {
				cfg.Input = inputPath
			}
			if flags.Changed("output") {
				cfg.Output = outputPath
			}
			if flags.Changed("window") {
				cfg.STFT.WindowFile = windowPath
			}
			if flags.Changed("size") {
				cfg.STFT.FFTSize = fftSize
			}
			if flags.Changed("overlap") {
				cfg.STFT.Overlap = overlap
			}
			if flags.Changed("workers") {
				cfg.STFT.Workers = workers
			}
			if flags.Changed("wait") {
				cfg.STFT.WaitMode = waitMode
			}
			if flags.Changed("plan") {
				cfg.STFT.PlanMode = planMode
			}

			if err := cfg.STFT.Validate(); err != nil {
				return err
			}
			src, closeSrc, err := openInput(cfg.Input)
			if err != nil {
				return err
			}
			defer closeSrc()
			return runSTFT(cfg, src)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&inputPath, "input", "i", "",
		"Input I/Q file: raw interleaved float32 LE, or a 2-channel WAV")
	flags.StringVarP(&outputPath, "output", "o", "",
		"Output file for spectral frames (default: stdout)")
	flags.IntVarP(&fftSize, "size", "s", 0,
		"Transform length N in samples")
	flags.IntVarP(&overlap, "overlap", "l", config.DefaultOverlap,
		"Overlap factor O; a frame starts every N/O samples")
	flags.IntVarP(&workers, "workers", "c", config.DefaultWorkers(),
		"Worker pool size")
	flags.StringVarP(&windowPath, "window", "w", "",
		"Window coefficient file, raw float32 LE (default: all-ones)")
	flags.StringVar(&waitMode, "wait", config.DefaultWaitMode,
		"How waiters block: park or spin")
	flags.StringVar(&planMode, "plan", config.DefaultPlanMode,
		"Transform preparation effort: estimate, measure or exhaustive")
	return cmd
}

func newSensorCmd(rf *rootFlags) *cobra.Command {
	var (
		outputPath string
		windowPath string
		fftSize    int
		overlap    int
		workers    int
		address    string
		centerHz   float64
		rateHz     float64
		gainDB     float64
		seconds    float64
	)

	cmd := &cobra.Command{
		Use:   "sensor",
		Short: "Stream spectral frames from a live receiver",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, rf)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("output") {
				cfg.Output = outputPath
			}
			if flags.Changed("window") {
				cfg.STFT.WindowFile = windowPath
			}
			if flags.Changed("size") {
				cfg.STFT.FFTSize = fftSize
			}
			if flags.Changed("overlap") {
				cfg.STFT.Overlap = overlap
			}
			if flags.Changed("workers") {
				cfg.STFT.Workers = workers
			}
			if flags.Changed("address") {
				cfg.SDR.Address = address
			}
			if flags.Changed("frequency") {
				cfg.SDR.CenterHz = centerHz
			}
			if flags.Changed("rate") {
				cfg.SDR.SampleRateHz = rateHz
			}
			if flags.Changed("gain") {
				cfg.SDR.GainDB = gainDB
			}
			if flags.Changed("time") {
				cfg.SDR.RunSeconds = seconds
			}

			if err := cfg.STFT.Validate(); err != nil {
				return err
			}
			if err := cfg.SDR.Validate(); err != nil {
				return err
			}

			src, err := input.Dial(input.SDRConfig{
				Address:      cfg.SDR.Address,
				CenterHz:     cfg.SDR.CenterHz,
				SampleRateHz: cfg.SDR.SampleRateHz,
				GainDB:       cfg.SDR.GainDB,
				MaxSamples:   cfg.SDR.MaxSamples(),
			})
			if err != nil {
				return err
			}
			defer src.Close()

			applog.Infof("receiver %s tuned to %.0f Hz at %.0f S/s, capturing %.1fs",
				cfg.SDR.Address, cfg.SDR.CenterHz, cfg.SDR.SampleRateHz, cfg.SDR.RunSeconds)
			err = runSTFT(cfg, src)
			applog.Infof("capture finished after %d samples", src.Received())
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&outputPath, "output", "o", "",
		"Output file for spectral frames (default: stdout)")
	flags.IntVarP(&fftSize, "size", "s", 0,
		"Transform length N in samples")
	flags.IntVarP(&overlap, "overlap", "l", config.DefaultOverlap,
		"Overlap factor O; a frame starts every N/O samples")
	flags.IntVarP(&workers, "workers", "c", config.DefaultWorkers(),
		"Worker pool size")
	flags.StringVarP(&windowPath, "window", "w", "",
		"Window coefficient file, raw float32 LE (default: all-ones)")
	flags.StringVarP(&address, "address", "a", "",
		"host:port of the I/Q streaming server")
	flags.Float64VarP(&centerHz, "frequency", "f", 0,
		"RX center frequency in Hz")
	flags.Float64VarP(&rateHz, "rate", "r", config.DefaultSampleRateHz,
		"Receiver sample rate in Hz")
	flags.Float64VarP(&gainDB, "gain", "g", config.DefaultGainDB,
		"RX chain gain in dB")
	flags.Float64VarP(&seconds, "time", "t", config.DefaultRunSeconds,
		"Capture duration in seconds")
	return cmd
}

func newRecordCmd(rf *rootFlags) *cobra.Command {
	var (
		outputPath string
		address    string
		centerHz   float64
		rateHz     float64
		gainDB     float64
		seconds    float64
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a live receiver's raw I/Q stream to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, rf)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("output") {
				cfg.Output = outputPath
			}
			if flags.Changed("address") {
				cfg.SDR.Address = address
			}
			if flags.Changed("frequency") {
				cfg.SDR.CenterHz = centerHz
			}
			if flags.Changed("rate") {
				cfg.SDR.SampleRateHz = rateHz
			}
			if flags.Changed("gain") {
				cfg.SDR.GainDB = gainDB
			}
			if flags.Changed("time") {
				cfg.SDR.RunSeconds = seconds
			}
			if err := cfg.SDR.Validate(); err != nil {
				return err
			}

			src, err := input.Dial(input.SDRConfig{
				Address:      cfg.SDR.Address,
				CenterHz:     cfg.SDR.CenterHz,
				SampleRateHz: cfg.SDR.SampleRateHz,
				GainDB:       cfg.SDR.GainDB,
				MaxSamples:   cfg.SDR.MaxSamples(),
			})
			if err != nil {
				return err
			}
			defer src.Close()
			out, flush, err := openOutput(cfg.Output)
			if err != nil {
				return err
			}

			applog.Infof("receiver %s tuned to %.0f Hz at %.0f S/s, recording %.1fs",
				cfg.SDR.Address, cfg.SDR.CenterHz, cfg.SDR.SampleRateHz, cfg.SDR.RunSeconds)
			samples, runErr := record.Run(out, src)
			applog.Infof("recorded %d samples", samples)
			if ferr := flush(); runErr == nil {
				runErr = ferr
			}
			return runErr
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&outputPath, "output", "o", "",
		"Output file for raw I/Q samples (default: stdout)")
	flags.StringVarP(&address, "address", "a", "",
		"host:port of the I/Q streaming server")
	flags.Float64VarP(&centerHz, "frequency", "f", 0,
		"RX center frequency in Hz")
	flags.Float64VarP(&rateHz, "rate", "r", config.DefaultSampleRateHz,
		"Receiver sample rate in Hz")
	flags.Float64VarP(&gainDB, "gain", "g", config.DefaultGainDB,
		"RX chain gain in dB")
	flags.Float64VarP(&seconds, "time", "t", config.DefaultRunSeconds,
		"Capture duration in seconds")
	return cmd
}

func newEnergyCmd(rf *rootFlags) *cobra.Command {
	var (
		inputPath  string
		outputPath string
		binSize    int
	)

	cmd := &cobra.Command{
		Use:   "energy",
		Short: "Reduce a recorded I/Q file to total power per bin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, rf)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("input") {
				cfg.Input = inputPath
			}
			if flags.Changed("output") {
				cfg.Output = outputPath
			}
			if flags.Changed("size") {
				cfg.Energy.BinSize = binSize
			}

			if err := cfg.Energy.Validate(); err != nil {
				return err
			}
			src, closeSrc, err := openInput(cfg.Input)
			if err != nil {
				return err
			}
			defer closeSrc()
			out, flush, err := openOutput(cfg.Output)
			if err != nil {
				return err
			}

			bins, runErr := energy.Run(out, src, cfg.Energy.BinSize)
			applog.Infof("wrote %d energy bins", bins)
			if ferr := flush(); runErr == nil {
				runErr = ferr
			}
			return runErr
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&inputPath, "input", "i", "",
		"Input I/Q file: raw interleaved float32 LE, or a 2-channel WAV")
	flags.StringVarP(&outputPath, "output", "o", "",
		"Output file for energy bins (default: stdout)")
	flags.IntVarP(&binSize, "size", "s", 0,
		"Samples summed per energy bin")
	return cmd
}

// runSTFT drives one pipeline pass over src with the configured engine
// settings, stopping cleanly on SIGINT/SIGTERM.
func runSTFT(cfg *config.Config, src input.SampleSource) error {
	win, err := window.Load(cfg.STFT.WindowFile, cfg.STFT.FFTSize)
	if err != nil {
		return err
	}
	out, flush, err := openOutput(cfg.Output)
	if err != nil {
		return err
	}

	waitMode, _ := stft.ParseWaitMode(cfg.STFT.WaitMode)
	planMode, _ := stft.ParsePlanMode(cfg.STFT.PlanMode)
	pl, err := stft.NewPipeline(out, stft.Options{
		FFTSize: cfg.STFT.FFTSize,
		Overlap: cfg.STFT.Overlap,
		Workers: cfg.STFT.Workers,
		Window:  win,
		Wait:    waitMode,
		Plan:    planMode,
	})
	if err != nil {
		flush()
		return err
	}

	stopNotify := stopOnSignal(pl)
	runErr := pl.Run(src)
	stopNotify()

	applog.Infof("wrote %d spectral frames", pl.Frames())
	if ferr := flush(); runErr == nil {
		runErr = ferr
	}
	return runErr
}

// stopOnSignal stops the pipeline on the first SIGINT or SIGTERM so
// the frame in flight completes and the output stays frame-aligned.
// The returned func tears the handler down.
func stopOnSignal(pl *stft.Pipeline) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		if _, ok := <-ch; ok {
			applog.Infof("interrupt received, finishing in-flight frames")
			pl.Stop()
		}
	}()
	return func() {
		signal.Stop(ch)
		close(ch)
	}
}

// openInput opens a recorded I/Q file, choosing the decoder by
// extension: .wav gets the 2-channel PCM reader, everything else is
// treated as raw interleaved float32.
func openInput(path string) (input.SampleSource, func() error, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("input file required (-i)")
	}
	if strings.ToLower(filepath.Ext(path)) == ".wav" {
		src, err := input.OpenWAV(path)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	}
	src, err := input.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return src, src.Close, nil
}

// openOutput opens the output sink, buffered. An empty path means
// stdout, which is left open after the flush.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		w := bufio.NewWriterSize(os.Stdout, 1<<16)
		return w, w.Flush, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create output file: %w", err)
	}
	w := bufio.NewWriterSize(f, 1<<16)
	flush := func() error {
		ferr := w.Flush()
		cerr := f.Close()
		if ferr != nil {
			return ferr
		}
		return cerr
	}
	return w, flush, nil
}
