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

import "errors"

// engineState is the interpreter's parser state. It only has meaning
// while a file is open; both Reader and VF drive the same state
// machine through the shared engine.
type engineState int

const (
	statePre engineState = iota
	stateOuter
	stateInPage
	statePostPost
	stateFinale
)

func (s engineState) String() string {
	switch s {
	case statePre:
		return "pre"
	case stateOuter:
		return "outer"
	case stateInPage:
		return "inpage"
	case statePostPost:
		return "post_post"
	case stateFinale:
		return "finale"
	default:
		return "invalid"
	}
}

// ErrFinaleNotImplemented is returned for opcode 249 (the
// post-postamble finale), which this package does not implement.
var ErrFinaleNotImplemented = errors.New("dvi: post-postamble finale not implemented")

// registers holds the interpreter's pen-position and stride state,
// saved and restored wholesale by push/pop.
type registers struct {
	h, v, w, x, y, z int64
}

// engine is the machinery shared by Reader and VF: the byte source,
// parser state, registers, accumulated marks for the current page or
// packet, and font table. Reader and VF differ only in their framing
// loop around this engine, mirroring the shared-mixin redesign of the
// original's Vf(Dvi) subclass.
type engine struct {
	src    *source
	state  engineState
	logger Logger

	registers
	stack []registers
	text  []Text
	boxes []Box

	fonts map[int]*DviFont
	f     int

	loadFont func(name string, scale, checksum int64) (*DviFont, error)
}

func newEngine(src *source, logger Logger, loadFont func(name string, scale, checksum int64) (*DviFont, error)) *engine {
	return &engine{
		src:      src,
		state:    statePre,
		logger:   logger,
		fonts:    make(map[int]*DviFont),
		loadFont: loadFont,
	}
}

func (e *engine) beginPage() {
	e.registers = registers{}
	e.stack = nil
	e.text = nil
	e.boxes = nil
}

func (e *engine) push() {
	e.stack = append(e.stack, e.registers)
}

func (e *engine) pop() {
	n := len(e.stack)
	e.registers = e.stack[n-1]
	e.stack = e.stack[:n-1]
}

// putCharReal appends the marks for char at the current pen position
// without advancing h, per the DVI put_char family. If the selected
// font is virtual, the VF's glyph definition is expanded in place.
func (e *engine) putCharReal(char int) error {
	font := e.fonts[e.f]
	if font == nil {
		return &MissingFontError{FontName: "<unselected>"}
	}
	if !font.IsVirtual() {
		e.text = append(e.text, Text{
			X:     float64(e.h),
			Y:     float64(e.v),
			Font:  font,
			Glyph: char,
			Width: float64(font.widthOf(char, e.logger)),
		})
		return nil
	}

	glyph, ok := font.vf.chars[char]
	if !ok {
		e.logger.logf("no vf glyph %d in font %s", char, font.TexName)
		return nil
	}
	scale := font.Scale
	for _, m := range glyph.text {
		newScale := mul2012(scale, m.font.Scale)
		newFont := NewDviFont(newScale, m.font.tfm, m.font.TexName, m.font.vf, nil)
		e.text = append(e.text, Text{
			X:     float64(e.h + mul2012(m.x, scale)),
			Y:     float64(e.v + mul2012(m.y, scale)),
			Font:  newFont,
			Glyph: m.glyph,
			Width: float64(newFont.widthOf(m.glyph, e.logger)),
		})
	}
	for _, b := range glyph.boxes {
		height := mul2012(b.height, scale)
		width := mul2012(b.width, scale)
		if height > 0 && width > 0 {
			e.boxes = append(e.boxes, Box{
				X:      float64(e.h + mul2012(b.x, scale)),
				Y:      float64(e.v + mul2012(b.y, scale)),
				Height: float64(height),
				Width:  float64(width),
			})
		}
	}
	return nil
}

func (e *engine) putRuleReal(a, b int64) {
	if a > 0 && b > 0 {
		e.boxes = append(e.boxes, Box{X: float64(e.h), Y: float64(e.v), Height: float64(a), Width: float64(b)})
	}
}

// doSetChar performs the shared body of both set_char variants: emit
// the marks, then advance h by the outer (unexpanded) font's width,
// never the VF-internal stride.
func (e *engine) doSetChar(char int) error {
	if err := e.putCharReal(char); err != nil {
		return err
	}
	font := e.fonts[e.f]
	e.h += font.widthOf(char, e.logger)
	return nil
}

// fontDefArgs reads the common tail of a font-definition opcode
// (opcode byte and k already consumed): checksum, scale, design size,
// then the area+name bytes of which only the trailing l bytes are the
// font name. It is shared by the DVI interpreter's font-def handler
// and the VF reader; the postamble and VF header name scanners parse
// the same fields inline.
func (e *engine) fontDefArgs() (checksum, scale, designSize int64, name string, err error) {
	if checksum, err = e.src.readInt(4, false); err != nil {
		return
	}
	if scale, err = e.src.readInt(4, false); err != nil {
		return
	}
	if designSize, err = e.src.readInt(4, false); err != nil {
		return
	}
	a, err := e.src.readInt(1, false)
	if err != nil {
		return
	}
	l, err := e.src.readInt(1, false)
	if err != nil {
		return
	}
	raw, err := e.src.readBytes(int(a + l))
	if err != nil {
		return
	}
	name = string(raw[a:])
	return
}

// argKind tags the DVI argument-width encodings the format uses. The
// closed set mirrors the original's argument-parsing functions.
type argKind int

const (
	argRaw argKind = iota
	argU1
	argU4
	argS4
	argSlen
	argSlen1
	argUlen1
	argOlen1
)

// readArg reads one argument of the given kind, where delta is
// opcode-minOpcode for the dispatch range in question. present is
// false only for argSlen with delta 0, meaning "no new value".
func (e *engine) readArg(kind argKind, delta int) (value int64, present bool, err error) {
	switch kind {
	case argRaw:
		return int64(delta), true, nil
	case argU1:
		v, err := e.src.readInt(1, false)
		return v, true, err
	case argU4:
		v, err := e.src.readInt(4, false)
		return v, true, err
	case argS4:
		v, err := e.src.readInt(4, true)
		return v, true, err
	case argSlen:
		if delta == 0 {
			return 0, false, nil
		}
		v, err := e.src.readInt(delta, true)
		return v, true, err
	case argSlen1:
		v, err := e.src.readInt(delta+1, true)
		return v, true, err
	case argUlen1:
		v, err := e.src.readInt(delta+1, false)
		return v, true, err
	case argOlen1:
		v, err := e.src.readInt(delta+1, delta == 3)
		return v, true, err
	default:
		return 0, false, &MalformedError{File: e.src.name, Reason: "unknown argument kind"}
	}
}
