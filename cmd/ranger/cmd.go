package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/alexcesaro/log"
	"github.com/alexcesaro/log/golog"
	flags "github.com/jessevdk/go-flags"
	"github.com/shazow/rateio"

	ranger "github.com/riovv/TalkerTexasRanger"
	"github.com/riovv/TalkerTexasRanger/command"
	"github.com/riovv/TalkerTexasRanger/config"
	"github.com/riovv/TalkerTexasRanger/plugins/pingpong"
	"github.com/riovv/TalkerTexasRanger/protocol"
	"github.com/riovv/TalkerTexasRanger/room"
	"github.com/riovv/TalkerTexasRanger/transport"
)

// Version of the binary, assigned during build.
var Version string = "dev"

// Options contains the flag options
type Options struct {
	Verbose []bool `short:"v" long:"verbose" description:"Show verbose logging."`
	Version bool   `long:"version" description:"Print version and exit."`
	Config  string `short:"c" long:"config" description:"Config file, JSON or YAML." default:"config.json"`
	Log     string `long:"log" description:"Write chat log to this file, - for STDOUT."`
}

var logLevels = []log.Level{
	log.Warning,
	log.Info,
	log.Debug,
}

func fail(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(code)
}

func main() {
	options := Options{}
	parser := flags.NewParser(&options, flags.Default)
	p, err := parser.Parse()
	if err != nil {
		if p == nil {
			fmt.Print(err)
		}
		return
	}

	if options.Version {
		fmt.Println(Version)
		return
	}

	// Figure out the log level
	numVerbose := len(options.Verbose)
	if numVerbose >= len(logLevels) {
		numVerbose = len(logLevels) - 1
	}

	logLevel := logLevels[numVerbose]
	logger := golog.New(os.Stderr, logLevel)
	ranger.SetLogger(logger)

	if logLevel == log.Debug {
		// Enable logging from submodules
		protocol.SetLogger(os.Stderr)
		transport.SetLogger(os.Stderr)
		room.SetLogger(os.Stderr)
		command.SetLogger(os.Stderr)
		pingpong.SetLogger(os.Stderr)
	}

	cfg, err := config.Load(options.Config)
	if err != nil {
		fail(2, "Failed to load config: %v\n", err)
	}

	cfg.Token, err = ReadToken(cfg.Token)
	if err != nil {
		fail(3, "%v\n", err)
	}

	clientConfig := cfg.Client()
	clientConfig.CommandRateLimit = func() rateio.Limiter {
		return rateio.NewSimpleLimiter(3, time.Second*3)
	}

	if options.Log == "-" {
		clientConfig.Transcript = os.Stdout
	} else if options.Log != "" {
		fp, err := os.OpenFile(options.Log, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			fail(4, "Failed to open log file for writing: %v", err)
		}
		defer fp.Close()
		clientConfig.Transcript = fp
	}

	client := ranger.New(clientConfig)
	defer client.Close()

	plugins := ranger.Plugins{}
	if err := plugins.Add(pingpong.New()); err != nil {
		fail(7, "Failed to register plugins: %v\n", err)
	}

	// Construct interrupt handler
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connected := make(chan []ranger.Result, 1)
	err = client.ConnectAll(ctx, cfg.Rooms, func(results []ranger.Result) {
		connected <- results
	})
	if err != nil {
		logger.Errorf("Connect: %v", err)
	}

	select {
	case results := <-connected:
		ok := 0
		for _, res := range results {
			if res.OK() {
				ok++
				continue
			}
			logger.Warningf("Couldn't connect to %s: %v", res.Room, res.Err)
		}
		if ok == 0 {
			fail(5, "Failed to connect to any room.\n")
		}
		fmt.Printf("Connected to %d of %d rooms on %s:%d\n", ok, len(results), cfg.Host, cfg.Port)
	case <-sig:
		fmt.Fprintln(os.Stderr, "Interrupt signal detected, shutting down.")
		return
	}

	if err := plugins.Load(client, cfg.Plugins); err != nil {
		fail(6, "Failed to load plugins: %v\n", err)
	}

	<-sig // Wait for ^C signal
	fmt.Fprintln(os.Stderr, "Interrupt signal detected, shutting down.")
}
