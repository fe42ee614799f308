package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/anatolykoptev/go-phototag"
)

// errQuit ends the interactive loop.
var errQuit = errors.New("quit")

// Command is one interactive command.
type Command interface {
	// Name returns the command identifier
	Name() string

	// Description returns human-readable help text
	Description() string

	// Usage returns a usage string for help (e.g. "filter [tag...]")
	Usage() string

	// Execute runs the command against the session, writing output to w.
	Execute(ctx context.Context, s *phototag.Session, args []string, w io.Writer) error
}

// Registry resolves command names, including aliases.
type Registry struct {
	commands []Command
	byName   map[string]Command
}

// NewRegistry returns a registry holding every built-in command.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Command)}
	r.Register(&uploadCommand{})
	r.Register(&rootCommand{})
	r.Register(&tagsCommand{})
	r.Register(&filterCommand{})
	r.Register(&listCommand{})
	r.Register(&infoCommand{})
	r.Register(&removeCommand{})
	r.Register(&vocabCommand{})
	r.Register(&helpCommand{registry: r})
	r.Register(&quitCommand{})
	r.alias("exit", "quit")
	r.alias("ls", "list")
	r.alias("rm", "remove")
	return r
}

// Register adds c under its name.
func (r *Registry) Register(c Command) {
	r.commands = append(r.commands, c)
	r.byName[c.Name()] = c
}

func (r *Registry) alias(name, target string) {
	r.byName[name] = r.byName[target]
}

// Lookup returns the command called name.
func (r *Registry) Lookup(name string) (Command, bool) {
	c, ok := r.byName[strings.ToLower(name)]
	return c, ok
}

// Execute parses line and runs the matching command. Empty lines are no-ops.
func (r *Registry) Execute(ctx context.Context, s *phototag.Session, line string, w io.Writer) error {
	args, err := splitArgs(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	c, ok := r.Lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown command %q (try \"help\")", args[0])
	}
	return c.Execute(ctx, s, args[1:], w)
}

// splitArgs splits a command line on whitespace. Double quotes group words
// so paths with spaces can be given.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inQuote bool
		started bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			started = true
		case !inQuote && (r == ' ' || r == '\t'):
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if inQuote {
		return nil, errors.New("unterminated quote")
	}
	if started {
		args = append(args, cur.String())
	}
	return args, nil
}

type uploadCommand struct{}

func (*uploadCommand) Name() string        { return "upload" }
func (*uploadCommand) Usage() string       { return "upload <file|pattern>..." }
func (*uploadCommand) Description() string { return "tag images and copy them into their tag folders" }

func (*uploadCommand) Execute(ctx context.Context, s *phototag.Session, args []string, w io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: upload <file|pattern>...")
	}
	paths, err := expandPatterns(args)
	if err != nil {
		return err
	}
	var failed int
	for _, o := range s.Upload(ctx, paths) {
		if o.Err != nil {
			failed++
		}
		writeOutcome(w, o)
	}
	fmt.Fprintf(w, "%d processed, %d with errors\n", len(paths), failed)
	return nil
}

func writeOutcome(w io.Writer, o phototag.Outcome) {
	var se *phototag.ScoringError
	switch {
	case errors.As(o.Err, &se):
		fmt.Fprintf(w, "skip  %s: %v\n", o.Path, o.Err)
		return
	case o.Err != nil:
		fmt.Fprintf(w, "fail  %s %s: %v\n", o.Path, formatTags(o.Tags), o.Err)
	default:
		fmt.Fprintf(w, "ok    %s %s\n", o.Path, formatTags(o.Tags))
	}
	for _, c := range o.Collisions {
		note := ""
		if c.NearDuplicate {
			note = " (near-duplicate)"
		}
		fmt.Fprintf(w, "      overwrote %s/%s from %s%s\n", c.Tag, filepath.Base(o.Path), c.Other, note)
	}
}

func formatTags(tags phototag.TagSet) string {
	if len(tags) == 0 {
		return "[no tags]"
	}
	return "[" + strings.Join(tags, ", ") + "]"
}

type rootCommand struct{}

func (*rootCommand) Name() string        { return "root" }
func (*rootCommand) Usage() string       { return "root [dir]" }
func (*rootCommand) Description() string { return "show or set the save folder" }

func (*rootCommand) Execute(_ context.Context, s *phototag.Session, args []string, w io.Writer) error {
	switch len(args) {
	case 0:
		if s.SaveRoot() == "" {
			fmt.Fprintln(w, "save folder not set")
			return nil
		}
		fmt.Fprintln(w, s.SaveRoot())
		return nil
	case 1:
		if err := s.SetSaveRoot(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(w, "save folder: %s\n", s.SaveRoot())
		return nil
	default:
		return errors.New("usage: root [dir]")
	}
}

type tagsCommand struct{}

func (*tagsCommand) Name() string        { return "tags" }
func (*tagsCommand) Usage() string       { return "tags" }
func (*tagsCommand) Description() string { return "list every tag assigned in this session" }

func (*tagsCommand) Execute(_ context.Context, s *phototag.Session, _ []string, w io.Writer) error {
	tags := s.Tags()
	if len(tags) == 0 {
		fmt.Fprintln(w, "no tags yet")
		return nil
	}
	for _, t := range tags {
		fmt.Fprintf(w, "%-16s %d\n", t, len(s.Filter(t)))
	}
	return nil
}

type filterCommand struct{}

func (*filterCommand) Name() string        { return "filter" }
func (*filterCommand) Usage() string       { return "filter [tag...]" }
func (*filterCommand) Description() string { return "show images carrying any of the tags (all images if none)" }

func (*filterCommand) Execute(_ context.Context, s *phototag.Session, args []string, w io.Writer) error {
	paths := s.Filter(args...)
	for _, p := range paths {
		fmt.Fprintln(w, p)
	}
	fmt.Fprintf(w, "%d images\n", len(paths))
	return nil
}

type listCommand struct{}

func (*listCommand) Name() string        { return "list" }
func (*listCommand) Usage() string       { return "list" }
func (*listCommand) Description() string { return "list catalogued images with their tags and state" }

func (*listCommand) Execute(_ context.Context, s *phototag.Session, _ []string, w io.Writer) error {
	entries := s.Snapshot()
	for _, e := range entries {
		fmt.Fprintf(w, "%-17s %s %s\n", e.State, e.Path, formatTags(e.Tags))
	}
	fmt.Fprintf(w, "%d images\n", len(entries))
	return nil
}

type infoCommand struct{}

func (*infoCommand) Name() string        { return "info" }
func (*infoCommand) Usage() string       { return "info <path|name>" }
func (*infoCommand) Description() string { return "show tags, copies and capture metadata of an image" }

func (*infoCommand) Execute(_ context.Context, s *phototag.Session, args []string, w io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: info <path|name>")
	}
	path, err := resolve(s, args[0])
	if err != nil {
		return err
	}
	e, _ := s.Lookup(path)

	fmt.Fprintf(w, "path:   %s\n", e.Path)
	fmt.Fprintf(w, "tags:   %s\n", formatTags(e.Tags))
	fmt.Fprintf(w, "state:  %s\n", e.State)
	if e.Root != "" {
		for _, t := range e.Placed {
			fmt.Fprintf(w, "copy:   %s\n", phototag.TagPath(e.Root, t, e.Path))
		}
	}
	if e.Err != nil {
		fmt.Fprintf(w, "error:  %v\n", e.Err)
	}
	if m := e.Metadata; m != nil {
		for _, f := range [][2]string{
			{"camera", m.Camera()},
			{"taken", m.TakenAt},
			{"artist", m.Artist},
			{"rights", m.Copyright},
			{"software", m.Software},
		} {
			if f[1] != "" {
				fmt.Fprintf(w, "%-7s %s\n", f[0]+":", f[1])
			}
		}
	}
	return nil
}

type removeCommand struct{}

func (*removeCommand) Name() string        { return "remove" }
func (*removeCommand) Usage() string       { return "remove <path|name>..." }
func (*removeCommand) Description() string { return "delete an image's tag-folder copies and forget it" }

func (*removeCommand) Execute(_ context.Context, s *phototag.Session, args []string, w io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: remove <path|name>...")
	}
	var errs []error
	for _, arg := range args {
		path, err := resolve(s, arg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.Remove(path); err != nil {
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(w, "removed %s\n", path)
	}
	return errors.Join(errs...)
}

type vocabCommand struct{}

func (*vocabCommand) Name() string        { return "vocab" }
func (*vocabCommand) Usage() string       { return "vocab" }
func (*vocabCommand) Description() string { return "show the label vocabulary and threshold" }

func (*vocabCommand) Execute(_ context.Context, s *phototag.Session, _ []string, w io.Writer) error {
	fmt.Fprintf(w, "threshold: %.2f\n", s.Threshold())
	fmt.Fprintf(w, "labels:    %s\n", strings.Join(s.Vocabulary(), ", "))
	return nil
}

type helpCommand struct {
	registry *Registry
}

func (*helpCommand) Name() string        { return "help" }
func (*helpCommand) Usage() string       { return "help" }
func (*helpCommand) Description() string { return "show this help" }

func (h *helpCommand) Execute(_ context.Context, _ *phototag.Session, _ []string, w io.Writer) error {
	cmds := append([]Command(nil), h.registry.commands...)
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name() < cmds[j].Name() })
	for _, c := range cmds {
		fmt.Fprintf(w, "  %-24s %s\n", c.Usage(), c.Description())
	}
	return nil
}

type quitCommand struct{}

func (*quitCommand) Name() string        { return "quit" }
func (*quitCommand) Usage() string       { return "quit" }
func (*quitCommand) Description() string { return "end the session" }

func (*quitCommand) Execute(context.Context, *phototag.Session, []string, io.Writer) error {
	return errQuit
}

// resolve maps a command argument to a catalogued path. The argument may be
// a path or the basename of exactly one catalogued image.
func resolve(s *phototag.Session, arg string) (string, error) {
	if _, ok := s.Lookup(arg); ok {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return arg, nil
		}
		return abs, nil
	}

	var matches []string
	for _, e := range s.Snapshot() {
		if filepath.Base(e.Path) == arg {
			matches = append(matches, e.Path)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s: not in catalog", arg)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s is ambiguous: %s", arg, strings.Join(matches, ", "))
	}
}
