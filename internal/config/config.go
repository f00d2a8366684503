package config

import (
	"fmt"
	"runtime"

	"iqspect/internal/stft"
)

// Core configuration constants that define the boundaries and defaults
// for the spectral pipeline.
const (
	// Default values for the STFT engine configuration
	DefaultOverlap  = 1            // Non-overlapping frames
	DefaultWaitMode = "park"       // Workers park on the ticket instead of spinning
	DefaultPlanMode = "exhaustive" // Slowest planning, best steady-state throughput
	DefaultLogLevel = "info"       // Quiet operation

	// Defaults for the live-SDR sensor path
	DefaultSampleRateHz = 2e6  // 2 MS/s, a common receiver bandwidth
	DefaultGainDB       = 20.0 // Moderate RX gain
	DefaultRunSeconds   = 10.0 // Bounded capture unless told otherwise

	// Processing limits
	MinWorkers = 1 // The pool degenerates to serial, never to zero
)

// DefaultWorkers leaves one core for the dispatcher, matching the
// rule of thumb of N-1 compute threads on an N-core machine.
func DefaultWorkers() int {
	if n := runtime.NumCPU() - 1; n > MinWorkers {
		return n
	}
	return MinWorkers
}

// Config holds all runtime options. It is constructed from defaults,
// then an optional YAML file, then command line flags, and is immutable
// once a run starts.
type Config struct {
	LogLevel string `yaml:"log_level"` // Logging level ("debug", "info", "warn", "error")

	Input  string `yaml:"input,omitempty"`  // Input I/Q file (raw interleaved float32 LE, or 2-channel WAV)
	Output string `yaml:"output,omitempty"` // Output file for magnitudes / energy bins

	STFT   STFTConfig   `yaml:"stft"`   // Overlapped STFT engine settings
	SDR    SDRConfig    `yaml:"sdr"`    // Live receiver settings (sensor mode)
	Energy EnergyConfig `yaml:"energy"` // Energy-bin settings
}

// STFTConfig holds the overlapped-transform engine settings shared by
// the file and sensor modes.
type STFTConfig struct {
	FFTSize    int    `yaml:"fft_size"`              // Transform length N
	Overlap    int    `yaml:"overlap"`               // Overlap factor O; a frame starts every N/O samples
	Workers    int    `yaml:"workers"`               // Worker pool size W
	WindowFile string `yaml:"window_file,omitempty"` // Raw float32 window coefficients; empty means all-ones
	WaitMode   string `yaml:"wait_mode"`             // "park" or "spin"
	PlanMode   string `yaml:"plan_mode"`             // "estimate", "measure" or "exhaustive"
}

// SDRConfig holds the network receiver settings for sensor mode.
type SDRConfig struct {
	Address      string  `yaml:"address"`        // host:port of the I/Q streaming server
	CenterHz     float64 `yaml:"center_hz"`      // RX center frequency
	SampleRateHz float64 `yaml:"sample_rate_hz"` // Receiver sample rate (= analysis bandwidth)
	GainDB       float64 `yaml:"gain_db"`        // RX chain gain
	RunSeconds   float64 `yaml:"run_seconds"`    // Capture duration; caps total samples at rate*seconds
}

// EnergyConfig holds the binned-energy reduction settings.
type EnergyConfig struct {
	BinSize int `yaml:"bin_size"` // Samples summed per energy bin
}

// NewConfig creates a Config with default values, the base before
// applying a YAML file or command line arguments.
func NewConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		STFT: STFTConfig{
			Overlap:  DefaultOverlap,
			Workers:  DefaultWorkers(),
			WaitMode: DefaultWaitMode,
			PlanMode: DefaultPlanMode,
		},
		SDR: SDRConfig{
			SampleRateHz: DefaultSampleRateHz,
			GainDB:       DefaultGainDB,
			RunSeconds:   DefaultRunSeconds,
		},
	}
}

// Validate checks the STFT engine parameters. It runs before any
// worker spawns so a bad combination never produces output bytes.
func (c *STFTConfig) Validate() error {
	if c.FFTSize <= 0 {
		return fmt.Errorf("fft size must be positive, got %d", c.FFTSize)
	}
	if c.Overlap < 1 {
		return fmt.Errorf("overlap factor must be at least 1, got %d", c.Overlap)
	}
	if c.FFTSize%c.Overlap != 0 {
		return fmt.Errorf("incompatible fft size and overlap factor: %d %% %d = %d",
			c.FFTSize, c.Overlap, c.FFTSize%c.Overlap)
	}
	if c.Workers < MinWorkers {
		return fmt.Errorf("need at least one worker, got %d", c.Workers)
	}
	// The engine's parsers are the single source of truth for the mode
	// vocabularies.
	if _, ok := stft.ParseWaitMode(c.WaitMode); !ok {
		return fmt.Errorf("unknown wait mode %q (want park or spin)", c.WaitMode)
	}
	if _, ok := stft.ParsePlanMode(c.PlanMode); !ok {
		return fmt.Errorf("unknown plan mode %q (want estimate, measure or exhaustive)", c.PlanMode)
	}
	return nil
}

// Hop returns the sample advance between consecutive frames.
func (c *STFTConfig) Hop() int {
	return c.FFTSize / c.Overlap
}

// Validate checks the receiver parameters for sensor mode.
func (c *SDRConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("receiver address must be set")
	}
	if c.SampleRateHz <= 0 {
		return fmt.Errorf("sample rate must be positive, got %g", c.SampleRateHz)
	}
	if c.CenterHz <= 0 {
		return fmt.Errorf("center frequency must be positive, got %g", c.CenterHz)
	}
	if c.RunSeconds <= 0 {
		return fmt.Errorf("runtime must be positive, got %g", c.RunSeconds)
	}
	return nil
}

// MaxSamples returns the sample cap implied by the configured runtime.
func (c *SDRConfig) MaxSamples() uint64 {
	return uint64(c.SampleRateHz * c.RunSeconds)
}

// Validate checks the energy-bin parameters.
func (c *EnergyConfig) Validate() error {
	if c.BinSize <= 0 {
		return fmt.Errorf("bin size must be positive, got %d", c.BinSize)
	}
	return nil
}
