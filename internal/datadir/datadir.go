// Package datadir provides constants and utilities for the tagtree data directory.
package datadir

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/natefinch/atomic"
)

const (
	// ConfigFile is the config file name inside the data directory.
	ConfigFile = "tagtree.toml"

	// BackupDir holds snapshots made by Backup, inside the data directory.
	BackupDir = "backups"

	backupStamp = "20060102-150405"
)

// ConfigPath returns the config file path within root.
func ConfigPath(root string) string {
	return filepath.Join(root, ConfigFile)
}

// BackupPath returns the backup directory within root.
func BackupPath(root string) string {
	return filepath.Join(root, BackupDir)
}

// Ensure creates root if it does not exist.
func Ensure(root string) error {
	if root == "" {
		return errors.New("data dir is empty")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}

// WriteIfMissing writes content to path unless a file is already there.
// It reports whether it wrote.
func WriteIfMissing(path string, content []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(content)); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

// Backup copies each existing file into root's backup directory under a
// timestamped name. Missing files are skipped. It returns the written paths.
func Backup(root string, now time.Time, files ...string) ([]string, error) {
	dir := BackupPath(root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	stamp := now.UTC().Format(backupStamp)

	var written []string
	for _, f := range files {
		data, err := os.ReadFile(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return written, fmt.Errorf("read %s: %w", f, err)
		}
		dst := filepath.Join(dir, backupName(filepath.Base(f), stamp))
		if err := atomic.WriteFile(dst, bytes.NewReader(data)); err != nil {
			return written, fmt.Errorf("write backup: %w", err)
		}
		written = append(written, dst)
	}
	return written, nil
}

// Backups lists the backups of base (e.g. "tags.xml") in root, newest first.
func Backups(root, base string) ([]string, error) {
	entries, err := os.ReadDir(BackupPath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext) + "-"
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ext)
		if _, err := time.Parse(backupStamp, stamp); err != nil {
			continue
		}
		out = append(out, filepath.Join(BackupPath(root), name))
	}
	// Stamps sort lexically in time order.
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out, nil
}

func backupName(base, stamp string) string {
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "-" + stamp + ext
}
