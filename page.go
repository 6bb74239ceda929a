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

// Text is a single glyph placement on a page.
type Text struct {
	X, Y  float64
	Font  *DviFont
	Glyph int
	Width float64
}

// Box is a solid rectangle on a page, e.g. a fraction bar or a rule.
type Box struct {
	X, Y, Height, Width float64
}

// Page is one page's worth of marks, in the physical units the Reader
// was opened with (or raw DVI units if it was opened with a nil DPI).
type Page struct {
	Text    []Text
	Boxes   []Box
	Width   float64
	Height  float64
	Descent float64
}

// Logger receives diagnostic traces that the original implementation
// logged at debug level: specials, skipped widths, and so on. The
// zero value discards everything.
type Logger func(format string, args ...any)

func (l Logger) logf(format string, args ...any) {
	if l != nil {
		l(format, args...)
	}
}
