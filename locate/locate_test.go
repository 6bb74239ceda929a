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

package locate

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jkseppan/dviread/texcache"
)

func TestMatchSkipsUnresolvedNames(t *testing.T) {
	names := []string{"cmr10.tfm", "cmmi10.tfm", "cmr10.vf"}
	// kpsewhich silently drops cmmi10.tfm from its output when it cannot
	// find it, so the second line really answers the third name.
	lines := []string{
		"/usr/share/texmf/fonts/tfm/cmr10.tfm",
		"/usr/share/texmf/fonts/vf/cmr10.vf",
	}
	got := Match(names, lines)
	want := map[string]string{
		"cmr10.tfm": "/usr/share/texmf/fonts/tfm/cmr10.tfm",
		"cmr10.vf":  "/usr/share/texmf/fonts/vf/cmr10.vf",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Match mismatch (-want +got):\n%s", diff)
	}
}

func TestMatchExactEquality(t *testing.T) {
	got := Match([]string{"a"}, []string{"a"})
	if got["a"] != "a" {
		t.Errorf("Match = %v, want a->a", got)
	}
}

type fakeRunner struct {
	calls [][]string
	paths map[string]string
}

func (r *fakeRunner) Run(_ context.Context, names []string) ([]byte, error) {
	r.calls = append(r.calls, append([]string(nil), names...))
	var out []byte
	for _, n := range names {
		if p, ok := r.paths[n]; ok {
			out = append(out, p+"\n"...)
		}
	}
	return out, nil
}

func openTestCache(t *testing.T) *texcache.Cache {
	t.Helper()
	dir := t.TempDir()
	c, err := texcache.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("texcache.Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestFindHitsAndMisses(t *testing.T) {
	cache := openTestCache(t)
	runner := &fakeRunner{paths: map[string]string{
		"cmr10.tfm": "/texmf/tfm/cmr10.tfm",
	}}

	got, err := Find(context.Background(), runner, cache, []string{"cmr10.tfm", "bogus.tfm"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got["cmr10.tfm"] == nil || *got["cmr10.tfm"] != "/texmf/tfm/cmr10.tfm" {
		t.Errorf("cmr10.tfm = %v, want /texmf/tfm/cmr10.tfm", got["cmr10.tfm"])
	}
	if got["bogus.tfm"] != nil {
		t.Errorf("bogus.tfm = %v, want nil (negative hit)", got["bogus.tfm"])
	}
	if len(runner.calls) != 1 {
		t.Fatalf("runner invoked %d times, want 1", len(runner.calls))
	}
}

func TestFindCachesAcrossCalls(t *testing.T) {
	cache := openTestCache(t)
	runner := &fakeRunner{paths: map[string]string{"cmr10.tfm": "/texmf/tfm/cmr10.tfm"}}

	if _, err := Find(context.Background(), runner, cache, []string{"cmr10.tfm"}); err != nil {
		t.Fatalf("Find #1: %v", err)
	}
	if _, err := Find(context.Background(), runner, cache, []string{"cmr10.tfm"}); err != nil {
		t.Fatalf("Find #2: %v", err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("runner invoked %d times after two Finds for the same name, want 1", len(runner.calls))
	}
}

func TestFindOne(t *testing.T) {
	cache := openTestCache(t)
	runner := &fakeRunner{paths: map[string]string{"cmr10.tfm": "/texmf/tfm/cmr10.tfm"}}

	got, err := FindOne(context.Background(), runner, cache, "cmr10.tfm")
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if got == nil || *got != "/texmf/tfm/cmr10.tfm" {
		t.Errorf("FindOne = %v, want /texmf/tfm/cmr10.tfm", got)
	}
}
