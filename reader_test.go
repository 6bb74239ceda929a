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
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/jkseppan/dviread/texcache"
)

const (
	testNum = 25400000
	testDen = 7227 * (1 << 16)
)

// dviBuilder assembles a synthetic DVI byte stream, tracking byte
// offsets the way the format itself requires (bop's backpointer,
// post_post's pointer to post).
type dviBuilder struct {
	buf bytes.Buffer
}

func (b *dviBuilder) offset() int64 { return int64(b.buf.Len()) }
func (b *dviBuilder) byte1(v byte)  { b.buf.WriteByte(v) }
func (b *dviBuilder) u8(v uint8)    { b.buf.WriteByte(v) }
func (b *dviBuilder) u16(v uint16)  { binary.Write(&b.buf, binary.BigEndian, v) }
func (b *dviBuilder) u32(v uint32)  { binary.Write(&b.buf, binary.BigEndian, v) }
func (b *dviBuilder) s32(v int32)   { binary.Write(&b.buf, binary.BigEndian, v) }
func (b *dviBuilder) bytes(v []byte) { b.buf.Write(v) }

func (b *dviBuilder) preamble(mag uint32, comment string) {
	b.byte1(247)
	b.u8(2)
	b.u32(testNum)
	b.u32(testDen)
	b.u32(mag)
	b.u8(uint8(len(comment)))
	b.bytes([]byte(comment))
}

func (b *dviBuilder) bop(prevBop int32) int64 {
	pos := b.offset()
	b.byte1(139)
	for i := 0; i < 10; i++ {
		b.s32(0)
	}
	b.s32(prevBop)
	return pos
}

func (b *dviBuilder) eop() { b.byte1(140) }

func (b *dviBuilder) fontDef(k uint8, checksum, scale, designSize uint32, name string) {
	b.byte1(243)
	b.u8(k)
	b.u32(checksum)
	b.u32(scale)
	b.u32(designSize)
	b.u8(0) // area length
	b.u8(uint8(len(name)))
	b.bytes([]byte(name))
}

func (b *dviBuilder) fntNum(k uint8) { b.byte1(171 + k) }

func (b *dviBuilder) setChar(c byte) { b.byte1(c) }

func (b *dviBuilder) postamble(bopOffset int64, checksum, scale, designSize uint32, name string) {
	postPos := b.offset()
	b.byte1(248)
	b.s32(int32(bopOffset))
	b.u32(testNum)
	b.u32(testDen)
	b.u32(1000)
	b.s32(0) // l
	b.s32(0) // u
	b.u16(0) // s
	b.u16(1) // t
	b.fontDef(0, checksum, scale, designSize, name)
	b.byte1(249) // post_post
	b.s32(int32(postPos))
	b.u8(2)
	for i := 0; i < 4; i++ {
		b.u8(223)
	}
}

// buildTfm assembles a minimal, valid single-character TFM file whose
// one character (code 65) has the given width/height/depth fix words.
func buildTfm(checksum, designSize uint32, width, height, depth int32) []byte {
	var buf bytes.Buffer
	u16 := func(v uint16) { binary.Write(&buf, binary.BigEndian, v) }
	u32 := func(v uint32) { binary.Write(&buf, binary.BigEndian, v) }

	u16(0) // lf, unused by the reader
	u16(2) // lh
	u16(65)
	u16(65)
	u16(1) // nw
	u16(1) // nh
	u16(1) // nd
	u16(0)
	u16(0)
	u16(0)
	u16(0)
	u16(0)

	u32(checksum)
	u32(designSize)

	buf.WriteByte(0) // width index
	buf.WriteByte(0) // height/depth indices
	buf.WriteByte(0)
	buf.WriteByte(0)

	u32(uint32(width))
	u32(uint32(height))
	u32(uint32(depth))
	return buf.Bytes()
}

type fakeRunner struct{ paths map[string]string }

func (r fakeRunner) Run(_ context.Context, names []string) ([]byte, error) {
	var out bytes.Buffer
	for _, n := range names {
		if p, ok := r.paths[n]; ok {
			out.WriteString(p)
			out.WriteByte('\n')
		}
	}
	return out.Bytes(), nil
}

func testCache(t *testing.T) *texcache.Cache {
	t.Helper()
	c, err := texcache.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("texcache.Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

const testChecksum = 0xC0FFEE00

func singlePageDVI(t *testing.T, scale, designSize uint32) string {
	t.Helper()
	var b dviBuilder
	b.preamble(1000, "test")
	bopPos := b.bop(-1)
	b.fontDef(0, testChecksum, scale, designSize, "cmr10")
	b.fntNum(0)
	b.setChar(65)
	b.eop()
	b.postamble(bopPos, testChecksum, scale, designSize, "cmr10")

	path := filepath.Join(t.TempDir(), "doc.dvi")
	if err := os.WriteFile(path, b.buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestOpenAndNextPageSingleChar(t *testing.T) {
	const scale, designSize = 10 << 20, 10 << 20
	dviPath := singlePageDVI(t, scale, designSize)

	tfmPath := filepath.Join(t.TempDir(), "cmr10.tfm")
	const width, height, depth = 1 << 19, 1 << 18, 1 << 15 // arbitrary fix words
	if err := os.WriteFile(tfmPath, buildTfm(testChecksum, designSize, width, height, depth), 0o644); err != nil {
		t.Fatalf("WriteFile tfm: %v", err)
	}

	cache := testCache(t)
	runner := fakeRunner{paths: map[string]string{"cmr10.tfm": tfmPath}}

	r, err := Open(context.Background(), dviPath, Options{Cache: cache, Runner: runner})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if got := r.Fonts(); len(got) != 1 || got[0] != "cmr10" {
		t.Fatalf("Fonts() = %v, want [cmr10]", got)
	}

	page, err := r.NextPage()
	if err != nil {
		t.Fatalf("NextPage: %v", err)
	}
	if len(page.Text) != 1 {
		t.Fatalf("len(page.Text) = %d, want 1", len(page.Text))
	}
	text := page.Text[0]
	if text.Glyph != 65 {
		t.Errorf("Glyph = %d, want 65", text.Glyph)
	}
	wantWidth := float64(mul2012(width, scale))
	if text.Width != wantWidth {
		t.Errorf("Width = %v, want %v", text.Width, wantWidth)
	}
	if text.X != 0 || text.Y != 0 {
		t.Errorf("position = (%v, %v), want (0, 0)", text.X, text.Y)
	}

	if _, err := r.NextPage(); !errors.Is(err, io.EOF) {
		t.Errorf("second NextPage = %v, want io.EOF", err)
	}
}

func TestNextPageRejectsNonstandardMagnification(t *testing.T) {
	var b dviBuilder
	b.preamble(2000, "")
	bopPos := b.bop(-1)
	b.eop()
	b.postamble(bopPos, 0, 0, 0, "cmr10")

	path := filepath.Join(t.TempDir(), "doc.dvi")
	if err := os.WriteFile(path, b.buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cache := testCache(t)
	r, err := Open(context.Background(), path, Options{Cache: cache, Runner: fakeRunner{}})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	_, err = r.NextPage()
	var uerr *UnitsError
	if err == nil {
		t.Fatal("expected UnitsError for mag=2000")
	}
	if !errors.As(err, &uerr) {
		t.Fatalf("error = %T (%v), want *UnitsError", err, err)
	}
}

func TestOpenMissingFont(t *testing.T) {
	const scale, designSize = 10 << 20, 10 << 20
	dviPath := singlePageDVI(t, scale, designSize)

	cache := testCache(t)
	// cmr10.tfm cannot be found: the runner knows no names at all.
	runner := fakeRunner{paths: map[string]string{}}

	r, err := Open(context.Background(), dviPath, Options{Cache: cache, Runner: runner})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	_, err = r.NextPage()
	var merr *MissingFontError
	if err == nil {
		t.Fatal("expected MissingFontError when cmr10.tfm cannot be located")
	}
	if !errors.As(err, &merr) {
		t.Fatalf("error = %T (%v), want *MissingFontError", err, err)
	}
}

func TestOutputDPIConversion(t *testing.T) {
	const scale, designSize = 10 << 20, 10 << 20
	dviPath := singlePageDVI(t, scale, designSize)

	tfmPath := filepath.Join(t.TempDir(), "cmr10.tfm")
	const width, height, depth = 1 << 19, 1 << 18, 0
	if err := os.WriteFile(tfmPath, buildTfm(testChecksum, designSize, width, height, depth), 0o644); err != nil {
		t.Fatalf("WriteFile tfm: %v", err)
	}

	cache := testCache(t)
	runner := fakeRunner{paths: map[string]string{"cmr10.tfm": tfmPath}}
	dpi := 72.0

	r, err := Open(context.Background(), dviPath, Options{Cache: cache, Runner: runner, DPI: &dpi})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	page, err := r.NextPage()
	if err != nil {
		t.Fatalf("NextPage: %v", err)
	}
	// At a single glyph with height>0 and depth=0 sitting at the
	// origin, the page's height in the dpi-converted coordinate
	// system must come out positive and finite.
	if page.Height <= 0 {
		t.Errorf("page.Height = %v, want > 0", page.Height)
	}
	d := dpi / (72.27 * (1 << 16))
	wantHeight := float64(mul2012(height, scale)) * d
	if diffFloat(page.Height, wantHeight) > 1e-9 {
		t.Errorf("page.Height = %v, want %v", page.Height, wantHeight)
	}
}

func diffFloat(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
