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

// opcodeEntry is one slot of the 256-entry dispatch table: the state
// the interpreter must be in for this opcode to be legal (if any),
// the minimum opcode of this entry's contiguous range (so handlers
// can recover delta = opcode-min), and the handler itself.
type opcodeEntry struct {
	hasState bool
	state    engineState
	min      int
	handler  func(e *engine, opcode byte, delta int) error
}

var dispatchTable [256]opcodeEntry

func register(min, max int, hasState bool, state engineState, handler func(e *engine, opcode byte, delta int) error) {
	for i := min; i <= max; i++ {
		dispatchTable[i] = opcodeEntry{hasState: hasState, state: state, min: min, handler: handler}
	}
}

// dispatch looks up and invokes the handler for opcode, checking the
// state precondition first. It is used by both Reader's page loop and
// VF's in-packet loop.
func (e *engine) dispatch(opcode byte) error {
	entry := dispatchTable[opcode]
	if entry.handler == nil {
		return &UnknownOpcodeError{Opcode: opcode}
	}
	if entry.hasState && e.state != entry.state {
		return &StateError{Opcode: opcode, Want: entry.state, Got: e.state}
	}
	return entry.handler(e, opcode, int(opcode)-entry.min)
}

func init() {
	register(0, 127, true, stateInPage, func(e *engine, _ byte, delta int) error {
		return e.doSetChar(delta)
	})
	register(128, 131, true, stateInPage, func(e *engine, opcode byte, delta int) error {
		char, _, err := e.readArg(argOlen1, delta)
		if err != nil {
			return err
		}
		return e.doSetChar(int(char))
	})
	register(132, 132, true, stateInPage, func(e *engine, _ byte, delta int) error {
		a, _, err := e.readArg(argS4, delta)
		if err != nil {
			return err
		}
		b, _, err := e.readArg(argS4, delta)
		if err != nil {
			return err
		}
		e.putRuleReal(a, b)
		e.h += b
		return nil
	})
	register(133, 136, true, stateInPage, func(e *engine, opcode byte, delta int) error {
		char, _, err := e.readArg(argOlen1, delta)
		if err != nil {
			return err
		}
		return e.putCharReal(int(char))
	})
	register(137, 137, true, stateInPage, func(e *engine, _ byte, delta int) error {
		a, _, err := e.readArg(argS4, delta)
		if err != nil {
			return err
		}
		b, _, err := e.readArg(argS4, delta)
		if err != nil {
			return err
		}
		e.putRuleReal(a, b)
		return nil
	})
	register(138, 138, false, 0, func(e *engine, _ byte, _ int) error {
		return nil
	})
	register(139, 139, true, stateOuter, func(e *engine, _ byte, delta int) error {
		for i := 0; i < 11; i++ {
			if _, _, err := e.readArg(argS4, delta); err != nil {
				return err
			}
		}
		e.state = stateInPage
		e.beginPage()
		return nil
	})
	register(140, 140, true, stateInPage, func(e *engine, _ byte, _ int) error {
		e.state = stateOuter
		return nil
	})
	register(141, 141, true, stateInPage, func(e *engine, _ byte, _ int) error {
		e.push()
		return nil
	})
	register(142, 142, true, stateInPage, func(e *engine, _ byte, _ int) error {
		if len(e.stack) == 0 {
			return &MalformedError{File: e.src.name, Offset: e.src.tell(), Reason: "pop with empty stack"}
		}
		e.pop()
		return nil
	})
	register(143, 146, true, stateInPage, func(e *engine, _ byte, delta int) error {
		b, _, err := e.readArg(argSlen1, delta)
		if err != nil {
			return err
		}
		e.h += b
		return nil
	})
	register(147, 151, true, stateInPage, func(e *engine, _ byte, delta int) error {
		w, present, err := e.readArg(argSlen, delta)
		if err != nil {
			return err
		}
		if present {
			e.w = w
		}
		e.h += e.w
		return nil
	})
	register(152, 156, true, stateInPage, func(e *engine, _ byte, delta int) error {
		x, present, err := e.readArg(argSlen, delta)
		if err != nil {
			return err
		}
		if present {
			e.x = x
		}
		e.h += e.x
		return nil
	})
	register(157, 160, true, stateInPage, func(e *engine, _ byte, delta int) error {
		a, _, err := e.readArg(argSlen1, delta)
		if err != nil {
			return err
		}
		e.v += a
		return nil
	})
	register(161, 165, true, stateInPage, func(e *engine, _ byte, delta int) error {
		y, present, err := e.readArg(argSlen, delta)
		if err != nil {
			return err
		}
		if present {
			e.y = y
		}
		e.v += e.y
		return nil
	})
	register(166, 170, true, stateInPage, func(e *engine, _ byte, delta int) error {
		z, present, err := e.readArg(argSlen, delta)
		if err != nil {
			return err
		}
		if present {
			e.z = z
		}
		e.v += e.z
		return nil
	})
	register(171, 234, true, stateInPage, func(e *engine, _ byte, delta int) error {
		e.f = delta
		return nil
	})
	register(235, 238, true, stateInPage, func(e *engine, _ byte, delta int) error {
		f, _, err := e.readArg(argOlen1, delta)
		if err != nil {
			return err
		}
		e.f = int(f)
		return nil
	})
	register(239, 242, false, 0, func(e *engine, _ byte, delta int) error {
		n, _, err := e.readArg(argUlen1, delta)
		if err != nil {
			return err
		}
		special, err := e.src.readBytes(int(n))
		if err != nil {
			return err
		}
		e.logger.logf("special: %s", string(special))
		return nil
	})
	register(243, 246, false, 0, func(e *engine, _ byte, delta int) error {
		k, _, err := e.readArg(argOlen1, delta)
		if err != nil {
			return err
		}
		checksum, scale, _, name, err := e.fontDefArgs()
		if err != nil {
			return err
		}
		font, err := e.loadFont(name, scale, checksum)
		if err != nil {
			return err
		}
		e.fonts[int(k)] = font
		return nil
	})
	register(247, 247, true, statePre, func(e *engine, _ byte, _ int) error {
		i, err := e.src.readInt(1, false)
		if err != nil {
			return err
		}
		num, err := e.src.readInt(4, false)
		if err != nil {
			return err
		}
		den, err := e.src.readInt(4, false)
		if err != nil {
			return err
		}
		mag, err := e.src.readInt(4, false)
		if err != nil {
			return err
		}
		k, err := e.src.readInt(1, false)
		if err != nil {
			return err
		}
		if _, err := e.src.readBytes(int(k)); err != nil {
			return err
		}
		if i != 2 {
			return &MalformedError{File: e.src.name, Reason: "identification byte not 2"}
		}
		if num != 25400000 || den != 7227*(1<<16) {
			return &UnitsError{Reason: "units"}
		}
		if mag != 1000 {
			return &UnitsError{Reason: "magnification"}
		}
		e.state = stateOuter
		return nil
	})
	register(248, 248, true, stateOuter, func(e *engine, _ byte, _ int) error {
		e.state = statePostPost
		return nil
	})
	register(249, 249, false, 0, func(e *engine, _ byte, _ int) error {
		return ErrFinaleNotImplemented
	})
	register(250, 255, false, 0, func(e *engine, opcode byte, _ int) error {
		return &UnknownOpcodeError{Opcode: opcode}
	})
}
