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

import "github.com/jkseppan/dviread/tfm"

// DviFont is a font that a DVI or VF file refers to: a TeX name and a
// scale factor, plus the metrics needed to compute advances, heights
// and depths. Equality and hashing are defined on (TexName, Size)
// alone; the rest are implementation aids for the interpreter.
type DviFont struct {
	TexName string
	Size    float64 // Adobe points
	Scale   int64   // 20.12 fixed-point
	Widths  []int   // glyph-space units, ~1/1000 of point size

	tfm *tfm.Tfm
	vf  *VF
}

// NewDviFont builds a DviFont from a TFM (or, for cache-reconstructed
// fonts, pre-computed widths). Either tfm or widths must be supplied.
func NewDviFont(scale int64, t *tfm.Tfm, texname string, vf *VF, widths []int) *DviFont {
	f := &DviFont{
		TexName: texname,
		Scale:   scale,
		tfm:     t,
		vf:      vf,
		Widths:  widths,
	}
	f.Size = float64(scale) * (72.0 / (72.27 * (1 << 16)))
	if f.Widths == nil && t != nil {
		nChars := 0
		if max, ok := t.MaxWidthChar(); ok {
			nChars = max + 1
		}
		f.Widths = make([]int, nChars)
		for char := range f.Widths {
			f.Widths[char] = int((1000 * int64(t.Width[char])) >> 20)
		}
	}
	return f
}

// Equal reports whether two fonts have the same TeX name and size, the
// only fields that distinguish DviFont values per the DVI format.
func (f *DviFont) Equal(other *DviFont) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.TexName == other.TexName && f.Size == other.Size
}

// IsVirtual reports whether the font is backed by a virtual-font file
// rather than a plain TFM.
func (f *DviFont) IsVirtual() bool {
	return f.vf != nil
}

// widthOf returns the advance of char in DVI units, scaling the TFM
// entry by the font's scale factor.
func (f *DviFont) widthOf(char int, logger Logger) int64 {
	if f.tfm == nil {
		return 0
	}
	w, ok := f.tfm.Width[char]
	if !ok {
		logger.logf("no width for char %d in font %s", char, f.TexName)
		return 0
	}
	return mul2012(int64(w), f.Scale)
}

// heightDepthOf returns the height and depth of char in DVI units.
func (f *DviFont) heightDepthOf(char int, logger Logger) (height, depth int64) {
	if f.tfm == nil {
		return 0, 0
	}
	if h, ok := f.tfm.Height[char]; ok {
		height = mul2012(int64(h), f.Scale)
	} else {
		logger.logf("no height for char %d in font %s", char, f.TexName)
	}
	if d, ok := f.tfm.Depth[char]; ok {
		depth = mul2012(int64(d), f.Scale)
	} else {
		logger.logf("no depth for char %d in font %s", char, f.TexName)
	}
	return height, depth
}
