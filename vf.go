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

import "io"

// VF is a parsed virtual font: a table from character code to the
// marks that code expands to, each expressed in the VF's own DVI
// units. VF reuses the engine's register machinery and opcode
// handlers for everything except its packet and preamble framing,
// which differ enough from a plain DVI file that they are not worth
// forcing through the shared dispatch table.
type VF struct {
	chars map[int]vfGlyph
}

type vfGlyph struct {
	text   []vfMark
	boxes  []vfBox
	width  int64
}

type vfMark struct {
	x, y  int64
	font  *DviFont
	glyph int
}

type vfBox struct {
	x, y, height, width int64
}

// openVF parses filename as a virtual-font file, resolving the fonts
// it references through l.
func openVF(filename string, l *loader) (*VF, error) {
	src, err := openSource(filename)
	if err != nil {
		return nil, err
	}
	defer src.close()

	names, err := scanVfFontNames(src)
	if err != nil {
		return nil, err
	}
	if err := l.warm(names); err != nil {
		return nil, err
	}

	e := newEngine(src, l.logger, l.resolveFont)
	vf := &VF{chars: make(map[int]vfGlyph)}
	firstFont := -1

	for {
		opcode, err := src.readByte()
		if err != nil {
			return nil, err
		}

		switch {
		case opcode < 242: // short packet
			char, err := src.readInt(1, false)
			if err != nil {
				return nil, err
			}
			width, err := src.readInt(3, false)
			if err != nil {
				return nil, err
			}
			if err := runPacket(e, vf, int(opcode), int(char), width, firstFont); err != nil {
				return nil, err
			}

		case opcode == 242: // long packet
			length, err := src.readInt(4, false)
			if err != nil {
				return nil, err
			}
			char, err := src.readInt(4, false)
			if err != nil {
				return nil, err
			}
			width, err := src.readInt(4, false)
			if err != nil {
				return nil, err
			}
			if err := runPacket(e, vf, int(length), int(char), width, firstFont); err != nil {
				return nil, err
			}

		case opcode >= 243 && opcode <= 246:
			delta := int(opcode) - 243
			k, _, err := e.readArg(argOlen1, delta)
			if err != nil {
				return nil, err
			}
			checksum, scale, _, name, err := e.fontDefArgs()
			if err != nil {
				return nil, err
			}
			font, err := l.resolveFont(name, scale, checksum)
			if err != nil {
				return nil, err
			}
			e.fonts[int(k)] = font
			if firstFont < 0 {
				firstFont = int(k)
			}

		case opcode == 247: // preamble
			if e.state != statePre {
				return nil, &MalformedError{File: filename, Reason: "pre command in middle of vf file"}
			}
			i, err := src.readInt(1, false)
			if err != nil {
				return nil, err
			}
			k, err := src.readInt(1, false)
			if err != nil {
				return nil, err
			}
			if _, err := src.readBytes(int(k)); err != nil {
				return nil, err
			}
			if _, err := src.readInt(4, false); err != nil { // checksum
				return nil, err
			}
			if _, err := src.readInt(4, false); err != nil { // design size
				return nil, err
			}
			if i != 202 {
				return nil, &MalformedError{File: filename, Reason: "unknown vf format identification byte"}
			}
			e.state = stateOuter

		case opcode == 248: // postamble: any number of further 248s
			return vf, nil

		default:
			return nil, &UnknownOpcodeError{Opcode: opcode}
		}
	}
}

// runPacket drives one VF glyph packet: reset registers, set the
// default font, and dispatch bytes against the shared opcode table
// until the packet's declared length is exhausted.
func runPacket(e *engine, vf *VF, length, char int, width int64, firstFont int) error {
	if e.state != stateOuter {
		return &MalformedError{File: e.src.name, Reason: "misplaced packet in vf file"}
	}
	e.registers = registers{}
	e.stack, e.text, e.boxes = nil, nil, nil
	e.f = firstFont
	e.state = stateInPage

	end := e.src.tell() + int64(length)
	for e.src.tell() < end {
		opcode, err := e.src.readByte()
		if err != nil {
			return err
		}
		if opcode == 139 || opcode == 140 || opcode >= 243 {
			return &MalformedError{File: e.src.name, Reason: "inappropriate opcode in vf file"}
		}
		if err := e.dispatch(opcode); err != nil {
			return err
		}
	}
	if e.src.tell() != end {
		return &MalformedError{File: e.src.name, Reason: "packet length mismatch in vf file"}
	}

	marks := make([]vfMark, len(e.text))
	for i, t := range e.text {
		marks[i] = vfMark{x: int64(t.X), y: int64(t.Y), font: t.Font, glyph: t.Glyph}
	}
	boxes := make([]vfBox, len(e.boxes))
	for i, b := range e.boxes {
		boxes[i] = vfBox{x: int64(b.X), y: int64(b.Y), height: int64(b.Height), width: int64(b.Width)}
	}
	vf.chars[char] = vfGlyph{text: marks, boxes: boxes, width: width}
	e.state = stateOuter
	return nil
}

// scanVfFontNames walks the font-definition header that precedes a
// VF's first packet, collecting the font names it names without
// installing them, so the caller can batch-locate every name in one
// pass before the real read begins.
func scanVfFontNames(src *source) ([]string, error) {
	if _, err := src.seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	var names []string
loop:
	for {
		b, err := src.readByte()
		if err != nil {
			return nil, err
		}
		switch {
		case b <= 242 || b >= 248:
			break loop
		case b >= 243 && b <= 246:
			delta := int(b) - 243
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
		case b == 247:
			if _, err := src.readInt(1, false); err != nil { // i
				return nil, err
			}
			k, err := src.readInt(1, false)
			if err != nil {
				return nil, err
			}
			if _, err := src.readBytes(int(k)); err != nil {
				return nil, err
			}
			if _, err := src.readInt(4, false); err != nil { // checksum
				return nil, err
			}
			if _, err := src.readInt(4, false); err != nil { // design size
				return nil, err
			}
		}
	}
	if _, err := src.seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return names, nil
}
