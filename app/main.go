package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/hashicorp/go-multierror"
	"github.com/jessevdk/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/moderator/app/webapi"
	"github.com/umputun/moderator/lib/heuristic"
	"github.com/umputun/moderator/lib/stats"
)

type options struct {
	Listen     string `long:"listen" env:"LISTEN" default:":8081" description:"listen address"`
	AuthPasswd string `long:"auth" env:"AUTH" description:"basic auth password for user moderator, disabled if not set"`
	Throttle   int64  `long:"throttle" env:"THROTTLE" default:"1000" description:"max number of concurrent requests, 0 - no limit"`

	Logger struct {
		Enabled    bool   `long:"enabled" env:"ENABLED" description:"enable rotated log file"`
		FileName   string `long:"file" env:"FILE" default:"moderator.log" description:"location of log file"`
		MaxSize    string `long:"max-size" env:"MAX_SIZE" default:"100M" description:"maximum size before it gets rotated"`
		MaxBackups int    `long:"max-backups" env:"MAX_BACKUPS" default:"10" description:"maximum number of old log files to retain"`
	} `group:"logger" namespace:"logger" env-namespace:"LOGGER"`

	Dbg bool `long:"dbg" env:"DEBUG" description:"debug mode"`
}

var revision = "local"

func main() {
	fmt.Printf("moderator %s\n", revision)
	var opts options
	p := flags.NewParser(&opts, flags.PrintErrors|flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.Parse(); err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) || flagsErr.Type != flags.ErrHelp {
			log.Printf("[ERROR] cli error: %v", err)
		}
		os.Exit(2)
	}

	if err := opts.validate(); err != nil {
		log.Printf("[ERROR] invalid options: %v", err)
		os.Exit(2)
	}

	logWr, err := makeLogWriter(opts)
	if err != nil {
		log.Printf("[ERROR] can't make log writer: %v", err)
		os.Exit(1)
	}
	defer logWr.Close()

	setupLog(opts.Dbg, logWr, opts.AuthPasswd)
	log.Printf("[DEBUG] options: %+v", opts)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		// catch signal and invoke graceful termination
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Printf("[WARN] interrupt signal")
		cancel()
	}()

	if err := execute(ctx, opts); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, opts options) error {
	counter := &stats.Counter{}
	srv := webapi.NewServer(webapi.Config{
		Version:    revision,
		ListenAddr: opts.Listen,
		Classifier: heuristic.NewClassifier(),
		Counter:    counter,
		AuthPasswd: opts.AuthPasswd,
		Throttle:   opts.Throttle,
	})

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("webapi server failed, %w", err)
	}
	log.Printf("[INFO] server terminated, requests handled: %d", counter.Value())
	return nil
}

// validate checks options and reports all found problems at once
func (o options) validate() error {
	errs := new(multierror.Error)
	if strings.TrimSpace(o.Listen) == "" {
		errs = multierror.Append(errs, errors.New("listen address is empty"))
	}
	if o.Throttle < 0 {
		errs = multierror.Append(errs, fmt.Errorf("throttle can't be negative, got %d", o.Throttle))
	}
	if o.Logger.Enabled {
		if o.Logger.FileName == "" {
			errs = multierror.Append(errs, errors.New("logger file name is empty"))
		}
		if _, err := sizeParse(o.Logger.MaxSize); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("invalid logger max size: %w", err))
		}
		if o.Logger.MaxBackups < 0 {
			errs = multierror.Append(errs, fmt.Errorf("logger max backups can't be negative, got %d", o.Logger.MaxBackups))
		}
	}
	return errs.ErrorOrNil()
}

// makeLogWriter creates a writer for rotated log file, if enabled.
// It parses options and makes lumberjack logger with rotation
func makeLogWriter(opts options) (io.WriteCloser, error) {
	if !opts.Logger.Enabled {
		return nopWriteCloser{io.Discard}, nil
	}

	maxSize, err := sizeParse(opts.Logger.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("can't parse logger MaxSize: %w", err)
	}
	maxSize /= 1048576
	if maxSize == 0 {
		maxSize = 1 // lumberjack treats 0 as default 100M
	}

	log.Printf("[INFO] logger enabled for %s, max size %dM", opts.Logger.FileName, maxSize)
	return &lumberjack.Logger{
		Filename:   opts.Logger.FileName,
		MaxSize:    int(maxSize), // in MB
		MaxBackups: opts.Logger.MaxBackups,
		Compress:   true,
		LocalTime:  true,
	}, nil
}

// sizeParse parses size with optional k/m/g/t suffix, case-insensitive
func sizeParse(inp string) (uint64, error) {
	if inp == "" {
		return 0, errors.New("empty value")
	}
	for i, sfx := range []string{"k", "m", "g", "t"} {
		if strings.HasSuffix(inp, strings.ToUpper(sfx)) || strings.HasSuffix(inp, strings.ToLower(sfx)) {
			val, err := strconv.Atoi(inp[:len(inp)-1])
			if err != nil {
				return 0, fmt.Errorf("can't parse %s: %w", inp, err)
			}
			return uint64(float64(val) * math.Pow(float64(1024), float64(i+1))), nil
		}
	}
	return strconv.ParseUint(inp, 10, 64)
}

type nopWriteCloser struct{ io.Writer }

func (n nopWriteCloser) Close() error { return nil }

// setupLog configures lgr and std logger. Log lines go to stdout and to fileWr, if it is not a nop writer.
// Colors are used for stdout-only output.
func setupLog(dbg bool, fileWr io.Writer, secrets ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	if _, nop := fileWr.(nopWriteCloser); fileWr == nil || nop {
		colorizer := lgr.Mapper{
			ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
			WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
			InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
			DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
			CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
			TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
		}
		logOpts = append(logOpts, lgr.Map(colorizer), lgr.Out(os.Stdout))
	} else {
		logOpts = append(logOpts, lgr.Out(io.MultiWriter(os.Stdout, fileWr)))
	}

	nonEmpty := []string{}
	for _, s := range secrets {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) > 0 {
		logOpts = append(logOpts, lgr.Secret(nonEmpty...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
