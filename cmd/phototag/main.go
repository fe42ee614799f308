// Command phototag tags photos with a vision model and files a copy of each
// into one folder per tag.
//
// Usage:
//
//	phototag [flags] [file|pattern...]
//
// With file arguments the images are uploaded in one batch and the command
// exits. Without arguments an interactive session reads commands from stdin.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/anatolykoptev/go-phototag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	config    string
	root      string
	threshold *float64 // nil unless -threshold was given
	debug     bool
	filter    string
}

func parseFlags(args []string, stderr io.Writer) (*options, []string, error) {
	fs := flag.NewFlagSet("phototag", flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts := &options{}
	fs.StringVar(&opts.config, "config", "", "path to YAML config file")
	fs.StringVar(&opts.root, "root", "", "save folder (overrides save_root)")
	threshold := fs.Float64("threshold", phototag.DefaultThreshold, "confidence cutoff in [0,1] (overrides threshold)")
	fs.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	fs.StringVar(&opts.filter, "filter", "", "after a batch upload, print images carrying any of these comma-separated tags")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "threshold" {
			opts.threshold = threshold
		}
	})
	return opts, fs.Args(), nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, files, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := LoadConfig(opts.config)
	if err != nil {
		fmt.Fprintf(stderr, "phototag: %v\n", err)
		return 1
	}
	if opts.root != "" {
		cfg.SaveRoot = opts.root
	}
	if opts.threshold != nil {
		cfg.Threshold = opts.threshold
	}

	logCloser, err := setupLogging(cfg.Log, opts.debug, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "phototag: %v\n", err)
		return 1
	}
	defer logCloser.Close()

	session, err := openSession(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "phototag: %v\n", err)
		return 1
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("phototag: close failed", "error", err)
		}
	}()

	reg := NewRegistry()
	if len(files) > 0 {
		return batch(ctx, reg, session, files, opts.filter, stdout, stderr)
	}
	repl(ctx, reg, session, stdin, stdout, stderr)
	return 0
}

func openSession(cfg *Config) (*phototag.Session, error) {
	scorer, err := cfg.newScorer()
	if err != nil {
		return nil, err
	}
	cache, err := cfg.newCache()
	if err != nil {
		return nil, err
	}
	session, err := phototag.NewSession(cfg.sessionConfig(scorer, cache))
	if err != nil {
		if closer, ok := cache.(io.Closer); ok {
			closer.Close()
		}
		return nil, err
	}
	return session, nil
}

// batch uploads files, optionally prints a filtered view, and reports a
// non-zero exit code if any image failed.
func batch(ctx context.Context, reg *Registry, s *phototag.Session, files []string, filter string, stdout, stderr io.Writer) int {
	paths, err := expandPatterns(files)
	if err != nil {
		fmt.Fprintf(stderr, "phototag: %v\n", err)
		return 1
	}

	code := 0
	for _, o := range s.Upload(ctx, paths) {
		writeOutcome(stdout, o)
		if o.Err != nil {
			code = 1
		}
	}

	if filter != "" {
		fmt.Fprintln(stdout)
		line := "filter " + strings.ReplaceAll(filter, ",", " ")
		if err := reg.Execute(ctx, s, line, stdout); err != nil {
			fmt.Fprintf(stderr, "phototag: %v\n", err)
			return 1
		}
	}
	return code
}

// repl reads commands until quit, EOF or interrupt. Command errors are
// printed and the session continues.
func repl(ctx context.Context, reg *Registry, s *phototag.Session, stdin io.Reader, stdout, stderr io.Writer) {
	fmt.Fprintf(stdout, "phototag session %s. Type \"help\" for commands.\n", s.ID)
	if s.SaveRoot() == "" {
		fmt.Fprintln(stdout, "No save folder set; use \"root <dir>\" before uploading.")
	}

	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "phototag> ")
		if !scanner.Scan() {
			fmt.Fprintln(stdout)
			return
		}
		if ctx.Err() != nil {
			return
		}
		err := reg.Execute(ctx, s, scanner.Text(), stdout)
		if errors.Is(err, errQuit) {
			return
		}
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
		}
	}
}
