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
	"io"
	"os"
)

// source is the positional byte stream the interpreter reads from. It
// wraps an *os.File and tracks the current offset itself rather than
// calling Seek(0, io.SeekCurrent) on every read, since the VF packet
// framing compares offsets on every single byte.
type source struct {
	file *os.File
	name string
	pos  int64
}

func openSource(name string) (*source, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return &source{file: f, name: name}, nil
}

func (s *source) close() error {
	return s.file.Close()
}

func (s *source) tell() int64 {
	return s.pos
}

func (s *source) seek(offset int64, whence int) (int64, error) {
	pos, err := s.file.Seek(offset, whence)
	if err != nil {
		return 0, err
	}
	s.pos = pos
	return pos, nil
}

func (s *source) readByte() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(s.file, buf[:]); err != nil {
		return 0, err
	}
	s.pos++
	return buf[0], nil
}

func (s *source) readBytes(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.file, buf); err != nil {
		return nil, err
	}
	s.pos += int64(n)
	return buf, nil
}

// readInt reads nbytes big-endian bytes, sign-extending from the high
// bit of the first byte when signed is true. A 64-bit accumulator
// avoids overflow for the 4-byte arguments the format allows.
func (s *source) readInt(nbytes int, signed bool) (int64, error) {
	buf, err := s.readBytes(nbytes)
	if err != nil {
		return 0, err
	}
	value := int64(buf[0])
	if signed && value >= 0x80 {
		value -= 0x100
	}
	for _, b := range buf[1:] {
		value = 0x100*value + int64(b)
	}
	return value, nil
}
