package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/marcuoli/go-tetherdiscovery/pkg/tetherdiscovery"
)

const name = "tetherdiscovery"

var tdLog = logrus.WithField("source", name)

// runState carries what the commands share with main.
type runState struct {
	ctx      context.Context
	out      io.Writer
	config   tetherdiscovery.Config
	registry *prometheus.Registry
	metrics  *tetherdiscovery.Metrics
	// ok is the Status of the last printed result.
	ok bool
}

func (s *runState) exitCode() int {
	if s.ok {
		return 0
	}
	return 1
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	app, state := newApp(ctx, os.Stdout)
	err := app.Run(os.Args)
	stop()
	if err != nil {
		tdLog.WithError(err).Error("command failed")
		os.Exit(2)
	}
	os.Exit(state.exitCode())
}

func newApp(ctx context.Context, out io.Writer) (*cli.App, *runState) {
	state := &runState{ctx: ctx, out: out}

	app := cli.NewApp()
	app.Name = name
	app.Usage = "detect a USB-tethered device and locate its HTTP service"
	app.Version = tetherdiscovery.Version
	app.Writer = out
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "TOML configuration file",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "log checks and probe runs",
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "also log every interface and probe attempt",
		},
		cli.BoolFlag{
			Name:  "metrics",
			Usage: "print Prometheus metrics to stderr after the command",
		},
	}
	app.Commands = []cli.Command{
		usbCommand(state),
		tetherCommand(state),
		readyCommand(state),
		waitCommand(state),
		guessCommand(state),
		interfacesCommand(state),
		candidatesCommand(state),
	}
	app.Before = func(c *cli.Context) error {
		setupLogging(c.GlobalBool("debug"), c.GlobalBool("verbose"))

		state.config = tetherdiscovery.DefaultConfig()
		if path := c.GlobalString("config"); path != "" {
			cfg, err := tetherdiscovery.LoadConfig(path)
			if err != nil {
				return err
			}
			state.config = cfg
		}

		if c.GlobalBool("metrics") {
			state.registry = prometheus.NewRegistry()
			state.metrics = tetherdiscovery.NewMetrics(state.registry)
		}
		return nil
	}
	app.After = func(c *cli.Context) error {
		if state.registry == nil {
			return nil
		}
		return dumpMetrics(os.Stderr, state.registry)
	}
	return app, state
}

func setupLogging(debug, verbose bool) {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level := tetherdiscovery.DebugOff
	switch {
	case verbose:
		level = tetherdiscovery.DebugVerbose
	case debug:
		level = tetherdiscovery.DebugBasic
	}
	if level == tetherdiscovery.DebugOff {
		logrus.SetLevel(logrus.InfoLevel)
		tetherdiscovery.SetDebugLogger(nil)
		tetherdiscovery.SetDebugLevel(level)
		return
	}

	logrus.SetLevel(logrus.DebugLevel)
	tetherdiscovery.SetDebugLevel(level)
	tetherdiscovery.SetDebugLogger(func(component tetherdiscovery.Component, format string, args ...interface{}) {
		tdLog.WithField("component", string(component)).Debugf(format, args...)
	})
}

func dumpMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
