// github.com/jkseppan/dviread - a reader for TeX DVI, TFM and VF files
// Copyright (C) 2024  The dviread Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package locate batches support-file lookups through an external
// locator program (conventionally kpsewhich), persisting the results
// in a texcache.Cache so repeated lookups of the same name never spawn
// a subprocess twice.
package locate

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/jkseppan/dviread/texcache"
)

// Runner invokes the external locator with names as arguments and
// returns its stdout. The real implementation shells out to
// kpsewhich; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, names []string) ([]byte, error)
}

// kpsewhichRunner shells out to the kpsewhich binary, one invocation
// per batch of names, as documented for TeX Live / MiKTeX.
type kpsewhichRunner struct{}

// DefaultRunner invokes the real kpsewhich binary found on PATH.
var DefaultRunner Runner = kpsewhichRunner{}

func (kpsewhichRunner) Run(ctx context.Context, names []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "kpsewhich", names...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		// kpsewhich exits non-zero when any name is not found; its
		// stdout still lists the names it did resolve.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, err
		}
	}
	return out.Bytes(), nil
}

// Match reassembles a locator's output lines against the names that
// were requested. kpsewhich preserves input order but silently omits
// names it cannot resolve, so a line can only be trusted to belong to
// a given name if it actually ends with that name (after the
// path separator): walking both lists in lockstep and skipping an
// input name whenever its line is missing is the only way to recover
// the association.
func Match(names []string, lines []string) map[string]string {
	result := make(map[string]string, len(names))
	li := 0
	for _, name := range names {
		if li >= len(lines) {
			continue
		}
		line := lines[li]
		if strings.HasSuffix(line, "/"+name) || line == name {
			result[name] = line
			li++
		}
	}
	return result
}

// splitLines splits locator stdout into non-empty lines.
func splitLines(output []byte) []string {
	var lines []string
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Find resolves filenames to absolute paths, consulting cache first
// and only invoking runner for names not already known (as either a
// hit or a recorded negative hit). The combined result, including any
// newly discovered misses, is persisted to cache in one transaction
// before Find returns. A nil value in the result means the name is
// known not to resolve to any file.
func Find(ctx context.Context, runner Runner, cache *texcache.Cache, filenames []string) (map[string]*string, error) {
	result, err := cache.GetPathnames(filenames)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, name := range filenames {
		if _, ok := result[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return result, nil
	}

	output, err := runner.Run(ctx, missing)
	if err != nil {
		return nil, err
	}
	found := Match(missing, splitLines(output))

	fresh := make(map[string]*string, len(missing))
	for _, name := range missing {
		if path, ok := found[name]; ok {
			p := path
			fresh[name] = &p
			result[name] = &p
		} else {
			fresh[name] = nil
			result[name] = nil
		}
	}

	if err := cache.WithTx(func(tx *texcache.Tx) error {
		return cache.UpdatePathnames(fresh, tx)
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// FindOne resolves a single filename, a convenience wrapper around Find.
func FindOne(ctx context.Context, runner Runner, cache *texcache.Cache, filename string) (*string, error) {
	result, err := Find(ctx, runner, cache, []string{filename})
	if err != nil {
		return nil, err
	}
	return result[filename], nil
}
