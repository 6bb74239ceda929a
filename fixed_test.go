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

import "testing"

func TestMul2012Identity(t *testing.T) {
	one := int64(1) << 20
	if got := mul2012(one, one); got != one {
		t.Errorf("mul2012(1,1) = %d, want %d", got, one)
	}
}

func TestMul2012Half(t *testing.T) {
	one := int64(1) << 20
	half := one / 2
	if got := mul2012(one, half); got != half {
		t.Errorf("mul2012(1, 0.5) = %d, want %d", got, half)
	}
}

func TestMul2012Negative(t *testing.T) {
	one := int64(1) << 20
	if got := mul2012(-one, one); got != -one {
		t.Errorf("mul2012(-1,1) = %d, want %d", got, -one)
	}
}

func TestFix2comp(t *testing.T) {
	if got := fix2comp(0xFFFFFFFF); got != -1 {
		t.Errorf("fix2comp(0xFFFFFFFF) = %d, want -1", got)
	}
	if got := fix2comp(1); got != 1 {
		t.Errorf("fix2comp(1) = %d, want 1", got)
	}
	if got := fix2comp(0x80000000); got != -2147483648 {
		t.Errorf("fix2comp(0x80000000) = %d, want -2147483648", got)
	}
}
