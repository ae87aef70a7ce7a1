// gpiobridge - MQTT to GPIO and process bridge
//
// gpiobridge subscribes to a set of MQTT topics and translates ON/OFF
// payloads into GPIO line writes and process start/stop actions, as
// described by a bindings file. It is intended to run as a long-lived
// daemon on small Linux boards.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/gpiobridge/gpiobridge/internal/bridge"
	"github.com/gpiobridge/gpiobridge/internal/gpio"
	"github.com/gpiobridge/gpiobridge/internal/infrastructure/config"
	"github.com/gpiobridge/gpiobridge/internal/infrastructure/logging"
	"github.com/gpiobridge/gpiobridge/internal/infrastructure/mqtt"
	"github.com/gpiobridge/gpiobridge/internal/supervisor"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default bindings file path, overridable with -c.
const defaultBindingsPath = "/etc/gpiobridge/gpiobridge.conf"

// settingsEnvVar optionally points at a YAML settings file for logging
// and broker tuning. The bindings file remains the source of truth for
// topic and pin mappings.
const settingsEnvVar = "GPIOBRIDGE_SETTINGS"

// options holds the parsed command line.
type options struct {
	bindingsPath string
	verbosity    int
}

func main() {
	opts, err := parseArgs(os.Args[1:], os.Stdout)
	if err != nil {
		if err == pflag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if opts == nil {
		// -h or -v handled the invocation entirely.
		os.Exit(0)
	}

	// Cancel on interrupt signals so run's defer chain performs the
	// ordered shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseArgs parses the command line. It returns (nil, nil) when -h or -v
// was asked for and already answered on out, and an error for unknown
// flags or positional arguments.
func parseArgs(args []string, out io.Writer) (*options, error) {
	opts := &options{}
	var showHelp, showVersion bool

	fs := pflag.NewFlagSet("gpiobridge", pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.BoolVarP(&showHelp, "help", "h", false, "show this help and exit")
	fs.BoolVarP(&showVersion, "version", "v", false, "print version and exit")
	fs.CountVarP(&opts.verbosity, "verbose", "V", "increase log verbosity (repeatable)")
	fs.StringVarP(&opts.bindingsPath, "config", "c", defaultBindingsPath, "bindings file path")
	fs.Usage = func() {
		fmt.Fprintf(out, "Usage: gpiobridge [-h] [-v] [-V] [-c FILE]\n\n")
		fmt.Fprintf(out, "MQTT to GPIO and process bridge.\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if showHelp {
		fs.Usage()
		return nil, nil
	}
	if showVersion {
		fmt.Fprintf(out, "gpiobridge %s (commit %s, built %s)\n", version, commit, date)
		return nil, nil
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	return opts, nil
}

// run wires the daemon together. The defer chain unwinds in reverse
// construction order on shutdown: MQTT disconnect first, then managed
// processes, then GPIO lines.
func run(ctx context.Context, opts options) error {
	settings, err := config.LoadSettings(os.Getenv(settingsEnvVar))
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	settings.Logging.Level = logging.LevelForVerbosity(settings.Logging.Level, opts.verbosity)

	log := logging.New(settings.Logging, version)
	log.Info("starting gpiobridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Bindings file: broker address plus topic/pin/command mappings.
	bindings, err := config.LoadBindings(opts.bindingsPath)
	if err != nil {
		return fmt.Errorf("loading bindings: %w", err)
	}
	log.Info("bindings loaded",
		"path", opts.bindingsPath,
		"subscriptions", len(bindings.Subscriptions),
		"gpio", len(bindings.GPIOs),
		"commands", len(bindings.Commands),
	)
	dumpBindings(log, bindings)

	// Claim every configured GPIO line up front; a line that cannot be
	// claimed is a fatal misconfiguration.
	lines, err := gpio.Open(bindings.GPIOs, gpio.CharDev{}, log)
	if err != nil {
		return fmt.Errorf("claiming GPIO lines: %w", err)
	}
	defer func() {
		log.Info("releasing GPIO lines")
		lines.Close()
	}()
	log.Info("GPIO lines claimed", "count", lines.Len())

	procs := supervisor.New(bindings.Commands, supervisor.ExecLauncher{}, log)
	defer func() {
		log.Info("stopping managed processes")
		procs.StopAll()
	}()

	// The bindings file owns the broker address; the settings file only
	// tunes client behaviour around it.
	settings.MQTT.Broker.Host = bindings.Broker.Host
	settings.MQTT.Broker.Port = bindings.Broker.Port

	mqttClient, err := mqtt.ConnectWithRetry(ctx, settings.MQTT, log)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", settings.MQTT.Broker.Host, settings.MQTT.Broker.Port),
		"client_id", settings.MQTT.Broker.ClientID,
	)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	router := bridge.NewRouter(bindings.Subscriptions, lines, procs, log)
	br, err := bridge.New(bridge.Options{
		Subscriptions: bindings.Subscriptions,
		Client:        brokerAdapter{mqttClient},
		Router:        router,
		Logger:        log,
	})
	if err != nil {
		return fmt.Errorf("building bridge: %w", err)
	}
	if err := br.Start(); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	log.Info("bridge running")

	<-ctx.Done()
	log.Info("shutdown signal received")
	return nil
}

// dumpBindings logs every loaded table entry at debug level, visible with -V.
func dumpBindings(log *logging.Logger, b *config.Bindings) {
	for _, g := range b.GPIOs {
		log.Debug("gpio binding", "link", g.Link, "chip", g.Chip, "pin", g.Pin)
	}
	for _, c := range b.Commands {
		log.Debug("command binding", "link", c.Link, "command", c.Command, "oneshot", c.Oneshot)
	}
	for _, s := range b.Subscriptions {
		log.Debug("subscription", "topic", s.Topic, "link", s.Link, "qos", s.QoS, "invert", s.Invert)
	}
}

// brokerAdapter narrows *mqtt.Client to the bridge's client interface.
// The paho wrapper takes its own MessageHandler type, so a plain function
// signature needs this shim.
type brokerAdapter struct {
	client *mqtt.Client
}

func (a brokerAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error {
	return a.client.Subscribe(topic, qos, mqtt.MessageHandler(handler))
}
