package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/nibzard/tagtree/internal/config"
	"github.com/nibzard/tagtree/internal/logging"
	"github.com/nibzard/tagtree/internal/tags"
	"github.com/nibzard/tagtree/internal/tasks"
)

// doctorCommand checks the config, the tag store and the task file without
// writing anything.
func doctorCommand(a *app, args []string) error {
	flags := a.flagSet("doctor")
	verbose := flags.Bool("v", false, "Verbose output")
	if _, err := parseArgs(flags, args, 0, 0, "doctor [-v]"); err != nil {
		return err
	}
	cfg := a.cfg
	w := a.out

	fmt.Fprintln(w, "tagtree doctor")
	fmt.Fprintln(w, "==============")
	fmt.Fprintln(w)

	allOK := true

	// Config
	fmt.Fprintln(w, "Config:")
	for _, f := range a.sources.Files {
		fmt.Fprintf(w, "  file: %s\n", f)
	}
	if *verbose {
		for _, field := range config.Fields() {
			fmt.Fprintf(w, "  %-15s %-30q (%s)\n", field, cfg.Value(field), a.sources.Sources[field])
		}
	}
	if err := logging.Validate(cfg.LogLevel, cfg.LogFormat); err != nil {
		fmt.Fprintf(w, "  ❌ %v\n", err)
		allOK = false
	} else {
		fmt.Fprintln(w, "  ✅ OK")
	}
	fmt.Fprintln(w)

	// Data directory
	fmt.Fprintf(w, "Data directory: %s\n", cfg.DataDir)
	if info, err := os.Stat(cfg.DataDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(w, "  ⚠️  Not found (run tagtree init)")
		} else {
			fmt.Fprintf(w, "  ❌ Error: %v\n", err)
			allOK = false
		}
	} else if !info.IsDir() {
		fmt.Fprintln(w, "  ❌ Error: path is not a directory")
		allOK = false
	} else {
		fmt.Fprintln(w, "  ✅ OK")
	}
	fmt.Fprintln(w)

	// Task file
	fmt.Fprintf(w, "Task file: %s\n", cfg.TasksFile)
	if ok, exists := checkFile(a, cfg.TasksFile); !ok {
		allOK = false
	} else if exists {
		file, err := tasks.Load(cfg.TasksFile)
		if err != nil {
			fmt.Fprintf(w, "  ❌ Load error: %v\n", err)
			allOK = false
		} else {
			result := file.Validate(tasks.ValidationOptions{SchemaPath: cfg.SchemaFile})
			for _, warn := range result.Warnings {
				fmt.Fprintf(w, "  ⚠️  %s\n", warn)
			}
			if result.Valid {
				fmt.Fprintf(w, "  ✅ Valid (%d tasks)\n", len(file.Tasks))
			} else {
				fmt.Fprintln(w, "  ❌ Validation failed:")
				for _, e := range result.Errors {
					fmt.Fprintf(w, "     - %v\n", e)
				}
				allOK = false
			}
		}
	}
	fmt.Fprintln(w)

	// Tag store
	fmt.Fprintf(w, "Tag store: %s\n", cfg.TagsFile)
	if ok, exists := checkFile(a, cfg.TagsFile); !ok {
		allOK = false
	} else if exists {
		store, err := tags.Open(cfg.TagsFile, nil, tags.WithLogger(a.logger))
		if err != nil {
			fmt.Fprintf(w, "  ❌ Load error: %v\n", err)
			allOK = false
		} else {
			fmt.Fprintf(w, "  ✅ Valid (%d tags)\n", store.Len())
			if *verbose {
				for _, t := range store.AllTags() {
					fmt.Fprintf(w, "    - %s\n", t.Name())
				}
			}
		}
	}
	fmt.Fprintln(w)

	if allOK {
		fmt.Fprintln(w, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(w, "⚠️  Some checks failed.")
	return fmt.Errorf("doctor checks failed")
}

// checkFile reports whether path is usable and whether it exists. A missing
// file is fine; it is created on first use.
func checkFile(a *app, path string) (ok, exists bool) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(a.out, "  ⚠️  Not found (will be created on first use)")
			return true, false
		}
		fmt.Fprintf(a.out, "  ❌ Error: %v\n", err)
		return false, false
	}
	if info.IsDir() {
		fmt.Fprintln(a.out, "  ❌ Error: path is a directory")
		return false, false
	}
	return true, true
}
