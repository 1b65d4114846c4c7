package layout

import (
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/sarchlab/aiesim/cascade"
	"github.com/sarchlab/aiesim/geography"
)

// Environment variables read by LoadConfig.
const (
	EnvLayout          = "AIESIM_LAYOUT"
	EnvPipeCapacity    = "AIESIM_PIPE_CAPACITY"
	EnvCascadeCapacity = "AIESIM_CASCADE_CAPACITY"
	EnvMonitorPort     = "AIESIM_MONITOR_PORT"
	EnvRecord          = "AIESIM_RECORD"
	EnvLogLevel        = "AIESIM_LOG_LEVEL"
)

// Config holds the parameters of a run.
type Config struct {
	Geography       geography.Geography
	PipeCapacity    int
	CascadeCapacity int

	// MonitorPort is the port of the monitoring server. 0 lets the system
	// pick one.
	MonitorPort int

	// Record is the path of the SQLite file pipe transfers are written to.
	// Empty disables recording.
	Record string

	LogLevel slog.Level
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	g, _ := Preset("small")

	return Config{
		Geography:       g,
		PipeCapacity:    4,
		CascadeCapacity: cascade.DefaultCapacity,
		LogLevel:        slog.LevelInfo,
	}
}

// LoadConfig loads the given env files, or ".env" if none is given, into the
// process environment and reads the configuration from it. A missing default
// ".env" is not an error. Variables already set in the environment win over
// the files.
func LoadConfig(files ...string) (Config, error) {
	err := godotenv.Load(files...)
	if err != nil && !(len(files) == 0 && errors.Is(err, fs.ErrNotExist)) {
		return Config{}, errors.Wrap(err, "loading env file")
	}

	return ConfigFromEnv(os.LookupEnv)
}

// ConfigFromEnv builds the configuration from the variables that lookup
// returns, starting from DefaultConfig.
func ConfigFromEnv(lookup func(string) (string, bool)) (Config, error) {
	c := DefaultConfig()

	if v, ok := lookup(EnvLayout); ok && v != "" {
		g, err := Parse(v)
		if err != nil {
			return Config{}, errors.Wrap(err, EnvLayout)
		}

		c.Geography = g
	}

	if err := positiveInt(lookup, EnvPipeCapacity, &c.PipeCapacity); err != nil {
		return Config{}, err
	}

	if err := positiveInt(lookup, EnvCascadeCapacity,
		&c.CascadeCapacity); err != nil {
		return Config{}, err
	}

	if v, ok := lookup(EnvMonitorPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 0 || port > 65535 {
			return Config{}, errors.Errorf("%s: invalid port %q", EnvMonitorPort, v)
		}

		c.MonitorPort = port
	}

	if v, ok := lookup(EnvRecord); ok {
		c.Record = v
	}

	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		level, err := ParseLogLevel(v)
		if err != nil {
			return Config{}, errors.Wrap(err, EnvLogLevel)
		}

		c.LogLevel = level
	}

	return c, nil
}

func positiveInt(
	lookup func(string) (string, bool),
	key string,
	dst *int,
) error {
	v, ok := lookup(key)
	if !ok || v == "" {
		return nil
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return errors.Errorf("%s: expected a positive integer, got %q", key, v)
	}

	*dst = n

	return nil
}

// ParseLogLevel accepts the slog level names, such as "debug" or "warn".
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, errors.Wrapf(err, "log level %q", s)
	}

	return level, nil
}
