// Package cmd implements the CLI command structure for tagtree.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tagtree/internal/config"
	"github.com/nibzard/tagtree/internal/logging"
	"github.com/nibzard/tagtree/internal/tags"
	"github.com/nibzard/tagtree/internal/tasks"
)

// Version is set via ldflags at build time.
var Version = "dev"

// errUsage marks errors caused by bad command-line input.
var errUsage = errors.New("usage")

// Run executes the tagtree CLI.
func Run(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdout, os.Stderr)
}

// app carries what every subcommand needs.
type app struct {
	cfg     *config.Config
	sources *config.ConfigWithSources
	logger  *log.Logger
	out     io.Writer
	errOut  io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("tagtree", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a := &app{
		cfg:     cws.Config,
		sources: cws,
		logger:  logging.FromConfig(cws.Config, stderr),
		out:     stdout,
		errOut:  stderr,
	}
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand(a)
	}

	// With no command, list tags.
	subcommand := "ls"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "ls":
		return lsCommand(a, remainingArgs)
	case "show":
		return showCommand(a, remainingArgs)
	case "add":
		return addCommand(a, remainingArgs)
	case "set":
		return setCommand(a, remainingArgs)
	case "unset":
		return unsetCommand(a, remainingArgs)
	case "mv":
		return mvCommand(a, remainingArgs)
	case "rename":
		return renameCommand(a, remainingArgs)
	case "rm":
		return rmCommand(a, remainingArgs)
	case "search":
		return searchCommand(a, remainingArgs)
	case "task":
		return taskCommand(a, remainingArgs)
	case "tui":
		return tuiCommand(ctx, a, remainingArgs)
	case "doctor":
		return doctorCommand(a, remainingArgs)
	case "init":
		return initCommand(a, remainingArgs)
	case "backup":
		return backupCommand(a, remainingArgs)
	case "completion":
		return completionCommand(a, remainingArgs)
	case "version":
		return versionCommand(a)
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// open loads the task file and the tag store and binds them together.
func (a *app) open() (*tags.Store, *tasks.List, error) {
	list, err := tasks.Open(a.cfg.TasksFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading task file: %w", err)
	}
	opts := []tags.Option{tags.WithLogger(a.logger)}
	if a.cfg.Builtins {
		opts = append(opts, tags.WithBuiltins())
	}
	store, err := tags.Open(a.cfg.TagsFile, nil, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("loading tag store: %w", err)
	}
	if err := list.Bind(store); err != nil {
		return nil, nil, err
	}
	a.logger.Debug("opened data", "tags", store.Len(), "tasks", len(list.Tasks()))
	return store, list, nil
}

// lookup resolves a tag argument, with or without the sigil. Exact names
// win so built-ins stay reachable.
func lookup(s *tags.Store, name string) (*tags.Tag, error) {
	if t, err := s.Lookup(name); err == nil {
		return t, nil
	}
	t, err := s.GetTag(name)
	if err != nil {
		if errors.Is(err, tags.ErrNotFound) {
			return nil, fmt.Errorf("tag %s: %w", tags.Canonical(name), err)
		}
		return nil, err
	}
	return t, nil
}

// parseArgs parses fs and checks the positional argument count.
func parseArgs(fs *flag.FlagSet, args []string, minArgs, maxArgs int, usage string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	rest := fs.Args()
	if len(rest) < minArgs || (maxArgs >= 0 && len(rest) > maxArgs) {
		return nil, fmt.Errorf("%w: tagtree %s", errUsage, usage)
	}
	return rest, nil
}

// parseAssignments splits k=v arguments.
func parseAssignments(args []string) ([][2]string, error) {
	out := make([][2]string, 0, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: expected key=value, got %q", errUsage, arg)
		}
		out = append(out, [2]string{k, v})
	}
	return out, nil
}

// splitAndTrim splits a string by sep and trims whitespace from each part.
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// versionCommand prints version information.
func versionCommand(a *app) error {
	fmt.Fprintf(a.out, "tagtree version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "tagtree - hierarchical tags for your tasks")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tagtree [global options] [command] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tag Commands:")
	fmt.Fprintln(w, "  ls [-tree] [-workview] [-attr k=v]   List tags (default command)")
	fmt.Fprintln(w, "  show <tag>                           Show a tag, its attributes and tasks")
	fmt.Fprintln(w, "  add [-parent p] <tag> [k=v...]       Create a tag")
	fmt.Fprintln(w, "  set <tag> k=v...                     Set attributes")
	fmt.Fprintln(w, "  unset <tag> k...                     Delete attributes")
	fmt.Fprintln(w, "  mv <tag> <parent|->                  Move a tag under parent, or to the top")
	fmt.Fprintln(w, "  rename <old> <new>                   Rename a tag and update its tasks")
	fmt.Fprintln(w, "  rm <tag>                             Remove an unused tag")
	fmt.Fprintln(w, "  search [-n limit] <query>            Full-text search over tags")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Task Commands:")
	fmt.Fprintln(w, "  task add [-tags a,b] <title>         Add a task")
	fmt.Fprintln(w, "  task ls [-tag t] [-status s] [-workview]")
	fmt.Fprintln(w, "                                       List tasks")
	fmt.Fprintln(w, "  task done|dismiss|reopen <id>        Change task status")
	fmt.Fprintln(w, "  task tag <id> <tag>                  Tag a task")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Other Commands:")
	fmt.Fprintln(w, "  tui [-workview] [-refresh d]         Browse the tag tree")
	fmt.Fprintln(w, "  doctor [-v]                          Check config, tag store and task file")
	fmt.Fprintln(w, "  init                                 Create the data directory and files")
	fmt.Fprintln(w, "  backup [-list]                       Snapshot the tag store and task file")
	fmt.Fprintln(w, "  completion <shell>                   Print a shell completion script")
	fmt.Fprintln(w, "  version                              Show version information")
	fmt.Fprintln(w, "  help                                 Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}
