package corvid

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// TargetSampleRate is the fixed rate the Audio Loader resamples every input
// to, per the spectrogram's frame/hop parameters being defined in that rate.
const TargetSampleRate = 22050

// FingerprintParams are the per-experiment tunables for peak picking and
// query windowing. They
// are safe to vary across ingest/query runs of the *same* logical experiment,
// but changing PeakMinDist or PeakMinAmpDB after an index has been built does
// not retroactively change already-stored fingerprints.
type FingerprintParams struct {
	// PeakMinDist is the spectrogram-cell neighborhood radius used by the
	// peak picker (C3). Default 15.
	PeakMinDist int `yaml:"peak_min_dist"`

	// PeakMinAmpDB is the amplitude floor, in dB relative to the spectrogram
	// maximum, below which a local maximum is not considered a peak. Must be
	// negative. Default -30.
	PeakMinAmpDB float64 `yaml:"peak_min_amp"`

	// ClipLenSeconds is how much audio a query sample should use, when the
	// caller lets the engine pick a sub-window. Default 10.
	ClipLenSeconds float64 `yaml:"clip_len"`

	// Seed derives pseudo-random relative start offsets for batched testing.
	Seed int64 `yaml:"seed"`

	// AddNoise is a test-time-only switch; the core engine does not act on
	// it directly, but preserves it for harnesses built on top of corvid.
	AddNoise bool `yaml:"add_noise"`
}

// DefaultFingerprintParams returns the engine's default peak-picking and
// query-windowing parameters.
func DefaultFingerprintParams() FingerprintParams {
	return FingerprintParams{
		PeakMinDist:    15,
		PeakMinAmpDB:   -30,
		ClipLenSeconds: 10,
		Seed:           0,
		AddNoise:       false,
	}
}

// LoadFingerprintParamsYAML reads per-experiment parameter overrides from a
// YAML file, layering them over DefaultFingerprintParams. Missing fields
// keep their default value.
func LoadFingerprintParamsYAML(path string) (FingerprintParams, error) {
	params := DefaultFingerprintParams()
	raw, err := os.ReadFile(path)
	if err != nil {
		return params, wrapIO(err)
	}
	if err := yaml.Unmarshal(raw, &params); err != nil {
		return params, wrapIO(err)
	}
	return params, nil
}

// Config holds configuration for the corvid Service.
type Config struct {
	// DBPath is the path to the SQLite fingerprint index file.
	DBPath string

	// TempDir is the scratch directory used while decoding/resampling audio.
	TempDir string

	// SampleRate is the target sample rate audio is resampled to. Callers
	// should not normally change this away from TargetSampleRate: the
	// spectrogram's frame/hop constants are only meaningful at that rate.
	SampleRate int

	Params FingerprintParams

	Logger  Logger
	Storage Storage
}

// Option is a functional option for configuring the service.
type Option func(*Config)

func WithDBPath(path string) Option { return func(c *Config) { c.DBPath = path } }

func WithTempDir(dir string) Option { return func(c *Config) { c.TempDir = dir } }

func WithSampleRate(rate int) Option { return func(c *Config) { c.SampleRate = rate } }

func WithFingerprintParams(p FingerprintParams) Option {
	return func(c *Config) { c.Params = p }
}

func WithLogger(log Logger) Option { return func(c *Config) { c.Logger = log } }

func WithStorage(storage Storage) Option { return func(c *Config) { c.Storage = storage } }

func defaultConfig() *Config {
	return &Config{
		DBPath:     "corvid.sqlite3",
		TempDir:    os.TempDir(),
		SampleRate: TargetSampleRate,
		Params:     DefaultFingerprintParams(),
	}
}

// LoadDotEnv loads CORVID_DB_PATH / CORVID_TEMP_DIR / LOG_LEVEL from an env
// file (if present) into the process environment, the way tefkah-seek-tune
// and shazoom source their database credentials. Missing files are not an
// error: a deployment may configure everything via real environment
// variables instead.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return wrapIO(err)
	}
	return nil
}

// ConfigFromEnv applies CORVID_DB_PATH and CORVID_TEMP_DIR, if set, as
// options on top of the given base options.
func ConfigFromEnv(opts ...Option) []Option {
	if v := os.Getenv("CORVID_DB_PATH"); v != "" {
		opts = append(opts, WithDBPath(v))
	}
	if v := os.Getenv("CORVID_TEMP_DIR"); v != "" {
		opts = append(opts, WithTempDir(v))
	}
	return opts
}
