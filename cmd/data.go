package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/nibzard/tagtree/internal/config"
	"github.com/nibzard/tagtree/internal/datadir"
	"github.com/nibzard/tagtree/internal/tags"
	"github.com/nibzard/tagtree/internal/tasks"
)

// initCommand creates the data directory, an example config, an empty tag
// store and an empty task file. Existing files are left alone.
func initCommand(a *app, args []string) error {
	flags := a.flagSet("init")
	if _, err := parseArgs(flags, args, 0, 0, "init"); err != nil {
		return err
	}
	root := a.cfg.DataDir
	if err := datadir.Ensure(root); err != nil {
		return err
	}

	cfgPath := datadir.ConfigPath(root)
	wrote, err := datadir.WriteIfMissing(cfgPath, []byte(config.ExampleConfig()))
	if err != nil {
		return err
	}
	report(a, cfgPath, wrote)

	if _, err := os.Stat(a.cfg.TasksFile); errors.Is(err, fs.ErrNotExist) {
		if err := tasks.Empty().Save(a.cfg.TasksFile); err != nil {
			return fmt.Errorf("create task file: %w", err)
		}
		report(a, a.cfg.TasksFile, true)
	} else if err != nil {
		return err
	} else {
		report(a, a.cfg.TasksFile, false)
	}

	_, statErr := os.Stat(a.cfg.TagsFile)
	// Loading creates a missing store file.
	if _, err := tags.Open(a.cfg.TagsFile, nil, tags.WithLogger(a.logger)); err != nil {
		return err
	}
	report(a, a.cfg.TagsFile, errors.Is(statErr, fs.ErrNotExist))
	return nil
}

func report(a *app, path string, created bool) {
	if created {
		fmt.Fprintf(a.out, "Created %s\n", path)
		return
	}
	fmt.Fprintf(a.out, "Exists  %s\n", path)
}

// backupCommand snapshots the tag store and the task file into the data
// directory, or lists existing snapshots.
func backupCommand(a *app, args []string) error {
	flags := a.flagSet("backup")
	list := flags.Bool("list", false, "List existing backups")
	if _, err := parseArgs(flags, args, 0, 0, "backup [-list]"); err != nil {
		return err
	}
	root := a.cfg.DataDir

	if *list {
		n := 0
		for _, f := range []string{a.cfg.TagsFile, a.cfg.TasksFile} {
			backups, err := datadir.Backups(root, filepath.Base(f))
			if err != nil {
				return err
			}
			for _, b := range backups {
				fmt.Fprintln(a.out, b)
				n++
			}
		}
		if n == 0 {
			fmt.Fprintln(a.out, "No backups found.")
		}
		return nil
	}

	written, err := datadir.Backup(root, time.Now(), a.cfg.TagsFile, a.cfg.TasksFile)
	if err != nil {
		return err
	}
	if len(written) == 0 {
		fmt.Fprintln(a.out, "Nothing to back up.")
		return nil
	}
	for _, p := range written {
		fmt.Fprintf(a.out, "Wrote %s\n", p)
	}
	a.logger.Info("backup complete", "files", len(written), "dir", datadir.BackupPath(root))
	return nil
}
