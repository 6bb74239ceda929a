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
	"os"
	"path/filepath"
	"testing"
)

// buildVf assembles a minimal virtual font: a preamble, one font
// definition for name, and a single short packet that maps char to
// glyph glyph of that font with no offset.
func buildVf(scale, designSize uint32, name string, char, glyph byte) []byte {
	var b dviBuilder
	b.byte1(247) // pre
	b.u8(202)    // identification byte, the vf equivalent of dvi's 2
	b.u8(0)      // comment length
	b.u32(0)     // checksum
	b.u32(designSize)
	b.fontDef(0, testChecksum, scale, designSize, name)

	b.byte1(1) // short packet, one byte of body
	b.u8(char)
	b.u8(0) // width fixword, 3 bytes
	b.u8(0)
	b.u8(0)
	b.byte1(glyph) // body: set_char

	b.byte1(248) // postamble: end of file for this simplified reader
	return b.buf.Bytes()
}

func TestOpenVFGlyphExpansion(t *testing.T) {
	const scale, designSize = 10 << 20, 10 << 20

	tfmPath := filepath.Join(t.TempDir(), "cmr10.tfm")
	const width, height, depth = 1 << 19, 1 << 18, 0
	if err := os.WriteFile(tfmPath, buildTfm(testChecksum, designSize, width, height, depth), 0o644); err != nil {
		t.Fatalf("WriteFile tfm: %v", err)
	}

	vfPath := filepath.Join(t.TempDir(), "cmr10.vf")
	if err := os.WriteFile(vfPath, buildVf(scale, designSize, "cmr10", 66, 65), 0o644); err != nil {
		t.Fatalf("WriteFile vf: %v", err)
	}

	cache := testCache(t)
	runner := fakeRunner{paths: map[string]string{"cmr10.tfm": tfmPath}}
	l := newLoader(context.Background(), cache, runner, nil)

	vf, err := openVF(vfPath, l)
	if err != nil {
		t.Fatalf("openVF: %v", err)
	}

	glyph, ok := vf.chars[66]
	if !ok {
		t.Fatal("char 66 missing from vf.chars")
	}
	if len(glyph.text) != 1 {
		t.Fatalf("len(glyph.text) = %d, want 1", len(glyph.text))
	}
	mark := glyph.text[0]
	if mark.glyph != 65 {
		t.Errorf("mark.glyph = %d, want 65", mark.glyph)
	}
	if mark.font == nil || mark.font.TexName != "cmr10" {
		t.Errorf("mark.font = %+v, want font named cmr10", mark.font)
	}
	if mark.x != 0 || mark.y != 0 {
		t.Errorf("mark position = (%d, %d), want (0, 0)", mark.x, mark.y)
	}
}

func TestOpenVFRejectsUnknownIdentificationByte(t *testing.T) {
	var b dviBuilder
	b.byte1(247)
	b.u8(199) // wrong identification byte
	b.u8(0)
	b.u32(0)
	b.u32(0)
	b.byte1(248)

	path := filepath.Join(t.TempDir(), "bad.vf")
	if err := os.WriteFile(path, b.buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cache := testCache(t)
	l := newLoader(context.Background(), cache, fakeRunner{}, nil)
	if _, err := openVF(path, l); err == nil {
		t.Fatal("expected an error for a bad vf identification byte")
	}
}
