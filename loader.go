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

package dvi

import (
	"context"

	"github.com/jkseppan/dviread/locate"
	"github.com/jkseppan/dviread/texcache"
	"github.com/jkseppan/dviread/tfm"
)

// defaultCacheCapacity bounds the TFM/VF memoization tables. Unlike
// the process-lifetime lru_cache of the original, a loader is scoped
// to one Reader/VF tree, so a modest bound is enough to avoid
// re-parsing the same font across many glyphs of a page without
// growing without bound across an unrelated batch of documents.
const defaultCacheCapacity = 64

// loader resolves DVI font-definition names to *DviFont values,
// consulting a persistent cache for file locations and memoizing
// parsed Tfm/VF objects by absolute filename within its own lifetime.
// Not safe for concurrent use, per the package's single-threaded
// concurrency model.
type loader struct {
	ctx    context.Context
	cache  *texcache.Cache
	runner locate.Runner
	logger Logger

	tfms *lruCache[string, *tfm.Tfm]
	vfs  *lruCache[string, *VF]
}

func newLoader(ctx context.Context, cache *texcache.Cache, runner locate.Runner, logger Logger) *loader {
	return &loader{
		ctx:    ctx,
		cache:  cache,
		runner: runner,
		logger: logger,
		tfms:   newLRUCache[string, *tfm.Tfm](defaultCacheCapacity),
		vfs:    newLRUCache[string, *VF](defaultCacheCapacity),
	}
}

// warm batch-locates {name}.tfm, {name}.vf, {name}.pfb for every name
// in one round trip to the locator, so that resolving each font-def
// opcode later hits the cache instead of spawning a subprocess per font.
func (l *loader) warm(names []string) error {
	var queries []string
	for _, name := range names {
		queries = append(queries, name+".tfm", name+".vf", name+".pfb")
	}
	_, err := locate.Find(l.ctx, l.runner, l.cache, queries)
	return err
}

func (l *loader) loadTfm(filename string) (*tfm.Tfm, error) {
	if t, ok := l.tfms.Get(filename); ok {
		return t, nil
	}
	t, err := tfm.Open(filename)
	if err != nil {
		return nil, err
	}
	l.tfms.Put(filename, t)
	return t, nil
}

func (l *loader) loadVf(filename string) (*VF, error) {
	if v, ok := l.vfs.Get(filename); ok {
		return v, nil
	}
	v, err := openVF(filename, l)
	if err != nil {
		return nil, err
	}
	l.vfs.Put(filename, v)
	return v, nil
}

// resolveFont is the engine's loadFont hook: locate name's .tfm and
// .vf, verify the font-def checksum, and build the DviFont.
func (l *loader) resolveFont(name string, scale, checksum int64) (*DviFont, error) {
	paths, err := locate.Find(l.ctx, l.runner, l.cache, []string{name + ".tfm", name + ".vf"})
	if err != nil {
		return nil, err
	}
	tfmPath := paths[name+".tfm"]
	if tfmPath == nil {
		return nil, &MissingFontError{FontName: name}
	}
	t, err := l.loadTfm(*tfmPath)
	if err != nil {
		return nil, err
	}
	if checksum != 0 && t.Checksum != 0 && uint32(checksum) != t.Checksum {
		return nil, &ChecksumError{FontName: name}
	}

	var v *VF
	if vfPath := paths[name+".vf"]; vfPath != nil {
		v, err = l.loadVf(*vfPath)
		if err != nil {
			return nil, err
		}
	}

	return NewDviFont(scale, t, name, v, nil), nil
}
