package hotkey

import "encoding/binary"

// Linux input_event layout on 64-bit: timeval (16 bytes), type, code, value.
const inputEventSize = 24

const (
	evKey      = 1
	keyPress   = 1
	keyRelease = 0
	keyLCtrl   = 29
	keyRCtrl   = 97
	keyLShift  = 42
	keyRShift  = 54
	keySpace   = 57
)

type inputEvent struct {
	typ   uint16
	code  uint16
	value int32
}

func decodeEvent(b []byte) inputEvent {
	return inputEvent{
		typ:   binary.LittleEndian.Uint16(b[16:]),
		code:  binary.LittleEndian.Uint16(b[18:]),
		value: int32(binary.LittleEndian.Uint32(b[20:])),
	}
}

// combo tracks modifier state for one keyboard. Space only counts as the
// combo when both modifiers are already held; its release ends the combo
// whatever the modifiers do in between. Autorepeat (value 2) is ignored.
type combo struct {
	ctrl, shift, active bool
}

func (c *combo) feed(ev inputEvent) (down, up bool) {
	if ev.typ != evKey {
		return false, false
	}
	pressed := ev.value == keyPress
	released := ev.value == keyRelease

	switch ev.code {
	case keyLCtrl, keyRCtrl:
		c.ctrl = pressed || (!released && c.ctrl)
	case keyLShift, keyRShift:
		c.shift = pressed || (!released && c.shift)
	case keySpace:
		if pressed && !c.active && c.ctrl && c.shift {
			c.active = true
			return true, false
		}
		if released && c.active {
			c.active = false
			return false, true
		}
	}
	return false, false
}
