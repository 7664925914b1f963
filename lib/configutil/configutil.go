// Package configutil reads json5 configuration files that can be overridden
// by an untracked local copy.
package configutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// Parse decodes a single json5 document.
func Parse[T any](contents []byte) (T, error) {
	var out T
	err := json5.Unmarshal(contents, &out)
	return out, err
}

// LocalPath returns the override path of a config file, ex. run.json5 ->
// run.local.json5.
func LocalPath(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

// readFile returns (nil, nil) when the file does not exist.
func readFile[T any](path string) (*T, error) {
	contents, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(contents) == 0) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out, err := Parse[T](contents)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &out, nil
}

// ReadConfig reads `name` (which must carry its extension) and merges
// `<name>.local.<ext>` over it when present. Fields set in the local file win.
// os.ErrNotExist is returned when neither file exists.
func ReadConfig[T any](name string) (T, error) {
	var out T

	base, err := readFile[T](name)
	if err != nil {
		return out, err
	}
	localPath := LocalPath(name)
	local, err := readFile[T](localPath)
	if err != nil {
		return out, err
	}

	switch {
	case base == nil && local == nil:
		return out, os.ErrNotExist
	case base == nil:
		return *local, nil
	case local == nil:
		return *base, nil
	}

	out = *base
	err = mergo.Merge(&out, *local, mergo.WithOverride)
	if err != nil {
		return out, fmt.Errorf("merge %s: %w", localPath, err)
	}
	slog.Debug("merged config with local overrides", "local", localPath)
	return out, nil
}

// ReadRecursively looks for `name` in the working directory and then in each
// parent directory, returning the first config found.
func ReadRecursively[T any](name string) (T, error) {
	var out T

	current, err := os.Getwd()
	if err != nil {
		return out, err
	}
	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if err == nil {
			return config, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return out, err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return out, os.ErrNotExist
		}
		current = parent
	}
}
