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

// mul2012 multiplies two 20.12 fixed-point numbers, keeping a 64-bit
// intermediate so the shift below cannot lose high bits.
func mul2012(a, b int64) int64 {
	return (a * b) >> 20
}

// fix2comp reinterprets a 32-bit two's-complement word, given as its
// unsigned value, as a signed integer. Go's int32(uint32) conversion
// already does the bit-for-bit reinterpretation this requires.
func fix2comp(n uint32) int32 {
	return int32(n)
}
