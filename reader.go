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
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jkseppan/dviread/locate"
	"github.com/jkseppan/dviread/texcache"
)

// maxPostamblePadding bounds the backward scan for the postamble
// pointer: a well-formed DVI file pads with four to seven 0xDF bytes,
// far fewer than this.
const maxPostamblePadding = 100

// Options configures Open. A zero Options uses raw DVI units, the
// process-wide default cache from texcache.Default(), and the real
// kpsewhich on PATH.
type Options struct {
	// DPI selects the physical units pages are reported in. Nil means
	// "return TeX's internal scaled-point units unconverted."
	DPI *float64

	// Cache persists file-lookup and page results. Nil falls back to
	// texcache.Default().
	Cache *texcache.Cache

	// Runner invokes the external support-file locator. Nil falls
	// back to locate.DefaultRunner.
	Runner locate.Runner

	// Logger receives diagnostic messages (specials, missing glyph
	// metrics); nil discards them.
	Logger Logger

	// PreviewBaseline enables the latex-preview-package convention of
	// reading a same-stem .baseline sidecar file for the page's descent,
	// mirroring the host library's text.latex.preview option. False by
	// default: a DVI file is read at face value unless the caller opts
	// into preview-baseline handling.
	PreviewBaseline bool
}

// Reader iterates the pages of a DVI file. It owns the underlying
// file handle from Open until Close.
type Reader struct {
	src    *source
	engine *engine
	loader *loader

	dpi      *float64
	baseline *float64

	fontnames []string
}

// Open opens filename, enumerates its referenced fonts from the
// postamble, and batch-locates their support files through the cache
// before any page is read.
func Open(ctx context.Context, filename string, opts Options) (*Reader, error) {
	src, err := openSource(filename)
	if err != nil {
		return nil, err
	}

	cache := opts.Cache
	if cache == nil {
		cache, err = texcache.Default()
		if err != nil {
			src.close()
			return nil, err
		}
	}
	runner := opts.Runner
	if runner == nil {
		runner = locate.DefaultRunner
	}

	r := &Reader{
		src:    src,
		loader: newLoader(ctx, cache, runner, opts.Logger),
		dpi:    opts.DPI,
	}
	if opts.PreviewBaseline {
		r.baseline = readBaseline(filename)
	}
	r.engine = newEngine(src, opts.Logger, r.loader.resolveFont)

	names, err := r.readPostambleFonts()
	if err != nil {
		src.close()
		return nil, err
	}
	r.fontnames = names

	if err := r.loader.warm(names); err != nil {
		src.close()
		return nil, err
	}
	if err := cache.Optimize(); err != nil {
		src.close()
		return nil, err
	}

	if _, err := src.seek(0, io.SeekStart); err != nil {
		src.close()
		return nil, err
	}
	return r, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.src.close()
}

// Fonts returns every font name referenced by the file's postamble.
func (r *Reader) Fonts() []string {
	return append([]string(nil), r.fontnames...)
}

// readBaseline looks for filename's .baseline sidecar (written by the
// LaTeX preview package) and returns its recorded depth, or nil if
// the sidecar does not exist.
func readBaseline(filename string) *float64 {
	ext := filepath.Ext(filename)
	baselinePath := strings.TrimSuffix(filename, ext) + ".baseline"
	data, err := os.ReadFile(baselinePath)
	if err != nil {
		return nil
	}
	fields := strings.Fields(string(data))
	if len(fields) != 3 {
		return nil
	}
	depth, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return nil
	}
	return &depth
}

// readPostambleFonts implements the postamble font-name scan: seek
// backward over 0xDF padding, find the post-postamble pointer, jump to
// the postamble, skip its fixed header, then read font-def opcodes
// until 249 terminates the list.
func (r *Reader) readPostambleFonts() ([]string, error) {
	src := r.src

	var offset int64 = -1
	var last byte
	var err error
	for offset > -maxPostamblePadding {
		if _, err := src.seek(offset, io.SeekEnd); err != nil {
			return nil, err
		}
		last, err = src.readByte()
		if err != nil {
			return nil, err
		}
		if last != 0xDF {
			break
		}
		offset--
	}
	if offset >= -4 {
		return nil, &MalformedError{File: src.name, Reason: "too few 0xDF padding bytes"}
	}
	if last != 2 {
		return nil, &MalformedError{File: src.name, Reason: "post-postamble identification byte not 2"}
	}

	if _, err := src.seek(offset-4, io.SeekEnd); err != nil {
		return nil, err
	}
	postambleOffset, err := src.readInt(4, false)
	if err != nil {
		return nil, err
	}
	if _, err := src.seek(postambleOffset, io.SeekStart); err != nil {
		return nil, err
	}
	b, err := src.readByte()
	if err != nil {
		return nil, &MalformedError{File: src.name, Offset: postambleOffset, Reason: "postamble offset out of range"}
	}
	if b != 248 {
		return nil, &MalformedError{File: src.name, Offset: postambleOffset, Reason: "postamble not found"}
	}

	if _, err := src.readBytes(28); err != nil {
		return nil, err
	}

	var names []string
	for {
		opcode, err := src.readByte()
		if err != nil {
			return nil, err
		}
		switch {
		case opcode >= 243 && opcode <= 246:
			delta := int(opcode) - 243
			if _, err := src.readInt(delta+1, delta == 3); err != nil { // k
				return nil, err
			}
			if _, err := src.readInt(4, false); err != nil { // checksum
				return nil, err
			}
			if _, err := src.readInt(4, false); err != nil { // scale
				return nil, err
			}
			if _, err := src.readInt(4, false); err != nil { // design size
				return nil, err
			}
			a, err := src.readInt(1, false)
			if err != nil {
				return nil, err
			}
			length, err := src.readInt(1, false)
			if err != nil {
				return nil, err
			}
			raw, err := src.readBytes(int(a + length))
			if err != nil {
				return nil, err
			}
			names = append(names, string(raw[a:]))
		case opcode == 249:
			sort.Strings(names)
			names = dedupe(names)
			return names, nil
		default:
			return nil, &MalformedError{File: src.name, Reason: fmt.Sprintf("opcode %d in postamble", opcode)}
		}
	}
}

func dedupe(names []string) []string {
	out := names[:0]
	var prev string
	for i, n := range names {
		if i == 0 || n != prev {
			out = append(out, n)
		}
		prev = n
	}
	return out
}

// NextPage reads and returns the next page of the file, or io.EOF
// once the postamble is reached.
func (r *Reader) NextPage() (*Page, error) {
	for {
		opcode, err := r.src.readByte()
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}
		if err := r.engine.dispatch(opcode); err != nil {
			return nil, err
		}
		if opcode == 140 {
			return r.output(), nil
		}
		if r.engine.state == statePostPost {
			return nil, io.EOF
		}
	}
}

// output converts the engine's accumulated marks for the page just
// read into a Page, applying the unit conversion and Y-axis inversion
// described for a non-nil DPI.
func (r *Reader) output() *Page {
	e := r.engine
	minx, miny := math.Inf(1), math.Inf(1)
	maxx, maxy := math.Inf(-1), math.Inf(-1)
	maxyPure := math.Inf(-1)

	for _, b := range e.boxes {
		minx = math.Min(minx, b.X)
		miny = math.Min(miny, b.Y-b.Height)
		maxx = math.Max(maxx, b.X+b.Width)
		maxy = math.Max(maxy, b.Y)
		maxyPure = math.Max(maxyPure, b.Y)
	}
	for _, t := range e.text {
		height, depth := t.Font.heightDepthOf(t.Glyph, e.logger)
		h, d := float64(height), float64(depth)
		minx = math.Min(minx, t.X)
		miny = math.Min(miny, t.Y-h)
		maxx = math.Max(maxx, t.X+t.Width)
		maxy = math.Max(maxy, t.Y+d)
		maxyPure = math.Max(maxyPure, t.Y)
	}

	if len(e.boxes) == 0 && len(e.text) == 0 {
		minx, miny, maxx, maxy, maxyPure = 0, 0, 0, 0, 0
	}

	if r.dpi == nil {
		return &Page{
			Text:    e.text,
			Boxes:   e.boxes,
			Width:   maxx - minx,
			Height:  maxyPure - miny,
			Descent: maxy - maxyPure,
		}
	}

	d := *r.dpi / (72.27 * (1 << 16))
	var descent float64
	if r.baseline != nil {
		descent = *r.baseline
	} else {
		descent = (maxy - maxyPure) * d
	}

	text := make([]Text, len(e.text))
	for i, t := range e.text {
		text[i] = Text{
			X:     (t.X - minx) * d,
			Y:     (maxy-t.Y)*d - descent,
			Font:  t.Font,
			Glyph: t.Glyph,
			Width: t.Width * d,
		}
	}
	boxes := make([]Box, len(e.boxes))
	for i, b := range e.boxes {
		boxes[i] = Box{
			X:      (b.X - minx) * d,
			Y:      (maxy-b.Y)*d - descent,
			Height: b.Height * d,
			Width:  b.Width * d,
		}
	}

	return &Page{
		Text:    text,
		Boxes:   boxes,
		Width:   (maxx - minx) * d,
		Height:  (maxyPure - miny) * d,
		Descent: descent,
	}
}
