// Command dfplayer controls a DFPlayer Mini MP3 module over a serial port.
//
// Usage:
//
//	dfplayer [flags] send <step...>     send one command or script step
//	dfplayer [flags] run <script>       play a command script
//	dfplayer [flags] monitor            print module events until interrupted
//	dfplayer [flags] ports              list serial ports
//
// Examples:
//
//	dfplayer -port /dev/ttyUSB0 send volume 20
//	dfplayer -port /dev/ttyUSB0 send wait online tf 5s
//	dfplayer -config dfplayer.yaml run intro.txt
//	dfplayer -simulate run intro.txt
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/moffa90/go-dfplayer/internal/config"
	"github.com/moffa90/go-dfplayer/internal/logging"
	"github.com/moffa90/go-dfplayer/internal/metrics"
	"github.com/moffa90/go-dfplayer/internal/serialport"
	"github.com/moffa90/go-dfplayer/internal/simulator"
	"github.com/moffa90/go-dfplayer/player"
	"github.com/moffa90/go-dfplayer/protocol"
	"github.com/moffa90/go-dfplayer/script"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// cli holds the parsed command line.
type cli struct {
	ConfigPath string
	Port       string
	Debug      bool
	Simulate   bool
	Command    string
	Args       []string
}

func parseCLI(args []string, stderr io.Writer) (*cli, error) {
	c := &cli{}

	fs := flag.NewFlagSet("dfplayer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&c.ConfigPath, "config", "", "Path to config file (yaml, toml or json)")
	fs.StringVar(&c.Port, "port", "", "Serial port, overrides serial.port")
	fs.BoolVar(&c.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&c.Simulate, "simulate", false, "Drive a simulated module instead of a serial port")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: dfplayer [flags] send <step...> | run <script> | monitor | ports")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return nil, errors.New("missing command")
	}
	c.Command, c.Args = rest[0], rest[1:]

	switch c.Command {
	case "send":
		if len(c.Args) == 0 {
			return nil, errors.New("send: missing step, e.g. \"send track 1\"")
		}
	case "run":
		if len(c.Args) != 1 {
			return nil, errors.New("run: expects exactly one script path")
		}
	case "monitor", "ports":
		if len(c.Args) != 0 {
			return nil, fmt.Errorf("%s: takes no arguments", c.Command)
		}
	default:
		fs.Usage()
		return nil, fmt.Errorf("unknown command %q", c.Command)
	}

	return c, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	c, err := parseCLI(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, "error:", err)
		}
		return exitUsage
	}

	if c.Command == "ports" {
		return listPorts(stdout, stderr)
	}

	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}
	if c.Port != "" {
		cfg.Serial.Port = c.Port
	}
	if c.Debug {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "error: init logger:", err)
		return exitError
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("session", uuid.NewString()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, c, cfg, logger, stdout); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("interrupted")
			return exitOK
		}
		logger.Error("command failed", zap.String("command", c.Command), zap.Error(err))
		return exitError
	}
	return exitOK
}

// execute opens the port, starts the player and runs the subcommand.
func execute(ctx context.Context, c *cli, cfg *config.Config, logger *zap.Logger, stdout io.Writer) error {
	opts := append(cfg.Player.Options(), player.WithLogger(logging.NewPlayerLogger(logger)))

	if cfg.Metrics.Enable {
		reg := metrics.NewRegistry()
		opts = append(opts, player.WithRecorder(metrics.NewPlayerMetrics(reg)))

		srv := serveMetrics(cfg.Metrics, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	port, err := openPort(c, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = port.Close() }()

	if c.Command == "run" {
		opts = append(opts, player.WithProgressCallback(func(p player.Progress) {
			logger.Info("step complete",
				zap.Int("step", p.Step),
				zap.Int("total", p.TotalSteps),
				zap.Int("line", p.Line),
				zap.String("step_desc", p.Description),
				zap.Duration("elapsed", p.ElapsedTime),
			)
		}))
	}

	p := player.New(port, opts...)

	runCtx, cancel := context.WithCancel(ctx)
	runErr := make(chan error, 1)
	go func() { runErr <- p.Run(runCtx) }()

	var cmdErr error
	switch c.Command {
	case "send":
		cmdErr = sendStep(runCtx, p, c.Args)
	case "run":
		cmdErr = runScript(runCtx, p, c.Args[0])
	case "monitor":
		monitor(p, stdout)
		cmdErr = ctx.Err()
	}

	cancel()
	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("read loop failed", zap.Error(err))
		if cmdErr == nil {
			cmdErr = err
		}
	}
	return cmdErr
}

func openPort(c *cli, cfg *config.Config, logger *zap.Logger) (io.ReadWriteCloser, error) {
	if c.Simulate {
		logger.Info("using simulated module")
		return simulator.New(logger.Named("simulator")), nil
	}

	port, err := serialport.Open(cfg.Serial.SerialPort())
	if err != nil {
		return nil, err
	}
	logger.Info("serial port opened", zap.String("port", cfg.Serial.Port), zap.Int("baud", cfg.Serial.BaudRate))
	return port, nil
}

func sendStep(ctx context.Context, p *player.Player, args []string) error {
	step, err := script.ParseStep(args)
	if err != nil {
		return err
	}
	step.Line = 1
	return p.Play(ctx, &script.Script{Steps: []*script.Step{step}})
}

func runScript(ctx context.Context, p *player.Player, path string) error {
	s, err := script.Parse(path)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return p.Play(ctx, s)
}

// monitor prints events until the read loop stops.
func monitor(p *player.Player, stdout io.Writer) {
	for resp := range p.Events() {
		fmt.Fprintf(stdout, "%s %s\n", time.Now().Format("15:04:05.000"), describe(resp))
	}
}

func describe(resp protocol.Response) string {
	switch resp.Kind {
	case protocol.RespModuleError:
		return fmt.Sprintf("%s (code 0x%02X)", resp, byte(resp.Error))
	default:
		return resp.String()
	}
}

func serveMetrics(cfg config.MetricsConfig, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, metrics.Handler(reg))

	srv := &http.Server{Addr: cfg.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics listening", zap.String("addr", cfg.Addr), zap.String("path", cfg.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}

func listPorts(stdout, stderr io.Writer) int {
	ports, err := serialport.List()
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}
	if len(ports) == 0 {
		fmt.Fprintln(stderr, "no serial ports found")
		return exitOK
	}
	for _, name := range ports {
		fmt.Fprintln(stdout, name)
	}
	return exitOK
}
