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

import "fmt"

// MalformedError indicates that a DVI or VF byte stream failed a
// structural check: a bad magic byte, an out-of-range seek target.
// A short read surfaces as the underlying io error, not as this type.
type MalformedError struct {
	File   string
	Offset int64
	Reason string
}

func (err *MalformedError) Error() string {
	if err.Offset != 0 {
		return fmt.Sprintf("malformed dvi file %s: %s (at byte %d)",
			err.File, err.Reason, err.Offset)
	}
	return fmt.Sprintf("malformed dvi file %s: %s", err.File, err.Reason)
}

// StateError indicates that an opcode appeared while the interpreter
// was in a state where that opcode is not allowed.
type StateError struct {
	Opcode byte
	Want   engineState
	Got    engineState
}

func (err *StateError) Error() string {
	return fmt.Sprintf("state precondition failed for opcode %d: want %s, have %s",
		err.Opcode, err.Want, err.Got)
}

// UnitsError indicates a well-formed but unsupported preamble: a
// magnification or unit numerator/denominator other than the ones TeX
// always emits.
type UnitsError struct {
	Reason string
}

func (err *UnitsError) Error() string {
	return "nonstandard " + err.Reason + " in dvi file"
}

// MissingFontError indicates that a font definition opcode named a
// font whose .tfm file could not be located.
type MissingFontError struct {
	FontName string
}

func (err *MissingFontError) Error() string {
	return "missing font metrics file: " + err.FontName
}

// ChecksumError indicates that a DVI font-definition checksum did not
// match the TFM file's checksum.
type ChecksumError struct {
	FontName string
}

func (err *ChecksumError) Error() string {
	return "tfm checksum mismatch: " + err.FontName
}

// UnknownOpcodeError indicates an opcode in the 250..255 range, or any
// opcode for which the dispatch table has no entry.
type UnknownOpcodeError struct {
	Opcode byte
}

func (err *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown command: byte %d", err.Opcode)
}
