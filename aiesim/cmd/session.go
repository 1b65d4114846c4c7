package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sarchlab/aiesim/array"
	"github.com/sarchlab/aiesim/datarecording"
	"github.com/sarchlab/aiesim/graphics"
	"github.com/sarchlab/aiesim/layout"
	"github.com/sarchlab/aiesim/monitoring"
	"github.com/sarchlab/aiesim/tracing"
)

// Side of the square of data points drawn for each tile.
const tileImageSize = 8

// session holds what a command sets up around the array it runs.
type session struct {
	cfg       layout.Config
	logger    *slog.Logger
	out       io.Writer
	counter   *tracing.TransferCounter
	recorder  datarecording.DataRecorder
	transfers *tracing.TransferRecorder
	monitor   *monitoring.Monitor
	grid      *graphics.ImageGrid
}

func loadConfig(cmd *cobra.Command) (layout.Config, error) {
	var files []string
	if opts.envFile != "" {
		files = append(files, opts.envFile)
	}

	cfg, err := layout.LoadConfig(files...)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()

	if flags.Changed("layout") && opts.layout != "" {
		cfg.Geography, err = layout.Parse(opts.layout)
		if err != nil {
			return cfg, err
		}
	}

	if flags.Changed("log-level") && opts.logLevel != "" {
		cfg.LogLevel, err = layout.ParseLogLevel(opts.logLevel)
		if err != nil {
			return cfg, err
		}
	}

	if flags.Changed("monitor-port") {
		cfg.MonitorPort = opts.monitorPort
	}

	if flags.Changed("record") {
		cfg.Record = opts.record
	}

	return cfg, nil
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(),
		&slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	s := &session{
		cfg:     cfg,
		logger:  logger,
		out:     cmd.OutOrStdout(),
		counter: tracing.NewTransferCounter(),
	}

	if cfg.Record != "" {
		s.recorder = datarecording.New(cfg.Record)
		s.transfers = tracing.NewTransferRecorder(s.recorder, "pipe_transfers")
	}

	if opts.monitor {
		if err := s.startMonitor(); err != nil {
			return nil, err
		}
	}

	logger.Info("session ready",
		"layout", cfg.Geography.String(),
		"pipe_capacity", cfg.PipeCapacity,
		"cascade_capacity", cfg.CascadeCapacity)

	return s, nil
}

func (s *session) startMonitor() error {
	s.grid = graphics.NewImageGrid(s.cfg.Geography,
		tileImageSize, tileImageSize, 4)

	s.monitor = monitoring.NewMonitor().WithPortNumber(s.cfg.MonitorPort)
	s.monitor.RegisterImageGrid(s.grid)
	s.monitor.RegisterTransferCounter(s.counter)
	s.monitor.StartServer()

	if opts.openBrowser {
		if err := s.monitor.OpenBrowser(); err != nil {
			return errors.Wrap(err, "opening the monitoring page")
		}
	}

	return nil
}

func (s *session) arrayBuilder() array.Builder {
	b := array.MakeBuilder().
		WithGeography(s.cfg.Geography).
		WithPipeCapacity(s.cfg.PipeCapacity).
		WithCascadeCapacity(s.cfg.CascadeCapacity).
		WithLogger(s.logger).
		WithHook(tracing.TransferHook(s.counter))

	if s.transfers != nil {
		b = b.WithHook(tracing.TransferHook(s.transfers))
	}

	return b
}

// observe shows the array on the monitoring page, if any.
func (s *session) observe(a *array.Array) {
	if s.monitor != nil {
		s.monitor.RegisterArray(a)
	}
}

// paint fills the image of tile (x, y) with v.
func (s *session) paint(x, y int, v, minValue, maxValue float64) {
	if s.grid == nil {
		return
	}

	data := make([][]float64, tileImageSize)
	for j := range data {
		data[j] = make([]float64, tileImageSize)
		for i := range data[j] {
			data[j][i] = v
		}
	}

	s.grid.UpdateTileDataImage(x, y, data, minValue, maxValue)
}

// abort closes the session after a failed run and returns err. A failure to
// close is logged, since err is what the user needs to see.
func (s *session) abort(ctx context.Context, err error) error {
	if closeErr := s.close(ctx); closeErr != nil {
		s.logger.Error("failed to close the session", "error", closeErr)
	}

	return err
}

func (s *session) close(ctx context.Context) error {
	for _, c := range s.counter.Counts() {
		s.logger.Debug("pipe traffic",
			"pipe", c.Pipe, "pushed", c.Pushed, "popped", c.Popped)
	}

	if s.monitor != nil && opts.hold {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()

		s.logger.Info("run finished, press Ctrl-C to stop monitoring",
			"url", s.monitor.URL())
		<-ctx.Done()
	}

	if s.grid != nil {
		s.grid.Close()
	}

	if s.recorder != nil {
		return s.recorder.Close()
	}

	return nil
}
