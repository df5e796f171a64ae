package vt

import "unicode/utf8"

// State identifies a parser state.
// The machine follows Paul Williams' DEC ANSI parser state diagram
// (https://vt100.net/emu/dec_ansi_parser), reduced to the states this
// emulator acts on. String payloads other than OSC are consumed and
// discarded.
type State uint8

// Parser states.
const (
	StateGround State = iota
	StateEscape
	StateEscapeIntermediate
	StateCsiEntry
	StateCsiParam
	StateCsiIntermediate
	StateCsiIgnore
	StateOscString
	StateStringConsume
)

// Handler receives the actions decoded by the parser. Slices passed to
// the callbacks are only valid for the duration of the call.
type Handler struct {
	// Print is called for each complete printable rune.
	Print func(r rune)
	// Execute is called for C0 control bytes.
	Execute func(b byte)
	// HandleCsi is called on a complete CSI sequence.
	HandleCsi func(params []int, intermediates []byte, final byte)
	// HandleEsc is called on a complete escape sequence.
	HandleEsc func(intermediates []byte, final byte)
	// HandleOsc is called with the raw payload of a terminated OSC.
	HandleOsc func(data []byte)
}

const (
	// maxParams bounds the CSI parameter list; a sequence carrying more
	// is consumed without dispatch.
	maxParams = 16
	// maxParamValue saturates accumulated parameter values.
	maxParamValue = 65535
	// maxOscBytes bounds the OSC payload buffer. Large enough for
	// clipboard payloads; bytes beyond the cap are dropped.
	maxOscBytes = 1 << 20
)

// Parser is the terminal byte-stream state machine. It decodes UTF-8
// (carrying partial runes across Advance calls), collects escape and
// control sequences, and hands complete actions to its Handler.
// It is not safe for concurrent use.
type Parser struct {
	handler Handler

	state         State
	params        []int
	curParam      int
	intermediates []byte
	oscData       []byte

	// stEscape is set when an ESC arrives inside a string state: the
	// next byte decides between a 7-bit ST terminator and an aborted
	// sequence.
	stEscape bool

	// Partial UTF-8 rune carried across Advance calls.
	utf8Buf  [utf8.UTFMax]byte
	utf8Len  int
	utf8Need int
}

// NewParser returns a parser in the ground state delivering actions to
// the given handler.
func NewParser(h Handler) *Parser {
	return &Parser{
		handler:       h,
		params:        make([]int, 0, maxParams),
		intermediates: make([]byte, 0, 4),
		oscData:       make([]byte, 0, 256),
	}
}

// State returns the current parser state.
func (p *Parser) State() State {
	return p.state
}

// Advance feeds a single byte through the state machine.
func (p *Parser) Advance(b byte) {
	// A partial rune only continues with ground-state continuation
	// bytes; anything else flushes it as U+FFFD and the interrupting
	// byte is processed normally.
	if p.utf8Need > 0 {
		if p.state == StateGround && b >= 0x80 && b < 0xc0 {
			p.utf8Buf[p.utf8Len] = b
			p.utf8Len++
			if p.utf8Len == p.utf8Need {
				r, _ := utf8.DecodeRune(p.utf8Buf[:p.utf8Len])
				p.utf8Need = 0
				p.utf8Len = 0
				p.print(r)
			}
			return
		}
		p.utf8Need = 0
		p.utf8Len = 0
		p.print(utf8.RuneError)
	}

	if p.stEscape {
		p.stEscape = false
		if b == '\\' {
			// 7-bit ST.
			if p.state == StateOscString {
				p.dispatchOsc()
			}
			p.state = StateGround
			return
		}
		// The ESC was a sequence restart: the string is discarded and
		// the byte handled from the escape state.
		p.clear()
		p.state = StateEscape
		p.Advance(b)
		return
	}

	// Anywhere transitions take priority over the current state.
	switch b {
	case 0x18, 0x1a: // CAN, SUB
		p.state = StateGround
		p.execute(b)
		return
	case 0x1b: // ESC
		if p.state == StateOscString || p.state == StateStringConsume {
			p.stEscape = true
			return
		}
		p.clear()
		p.state = StateEscape
		return
	}

	switch p.state {
	case StateGround:
		p.ground(b)
	case StateEscape:
		p.escape(b)
	case StateEscapeIntermediate:
		p.escapeIntermediate(b)
	case StateCsiEntry:
		p.csiEntry(b)
	case StateCsiParam:
		p.csiParam(b)
	case StateCsiIntermediate:
		p.csiIntermediate(b)
	case StateCsiIgnore:
		p.csiIgnore(b)
	case StateOscString:
		p.oscString(b)
	case StateStringConsume:
		// DCS/SOS/PM/APC payload, consumed until ST.
		if b == 0x9c {
			p.state = StateGround
		}
	}
}

// Write feeds a byte slice through the state machine. It always
// consumes all of p and never fails; the error return satisfies
// io.Writer.
func (p *Parser) Write(data []byte) (int, error) {
	for _, b := range data {
		p.Advance(b)
	}
	return len(data), nil
}

func (p *Parser) clear() {
	p.params = p.params[:0]
	p.curParam = 0
	p.intermediates = p.intermediates[:0]
	p.oscData = p.oscData[:0]
}

func (p *Parser) print(r rune) {
	if p.handler.Print != nil {
		p.handler.Print(r)
	}
}

func (p *Parser) execute(b byte) {
	if p.handler.Execute != nil {
		p.handler.Execute(b)
	}
}

func (p *Parser) dispatchCsi(final byte) {
	p.state = StateGround
	if p.handler.HandleCsi != nil {
		p.handler.HandleCsi(p.params, p.intermediates, final)
	}
}

func (p *Parser) dispatchEsc(final byte) {
	p.state = StateGround
	if p.handler.HandleEsc != nil {
		p.handler.HandleEsc(p.intermediates, final)
	}
}

func (p *Parser) dispatchOsc() {
	if p.handler.HandleOsc != nil {
		p.handler.HandleOsc(p.oscData)
	}
}

// pushParam ends the current parameter slot. Overflowing the parameter
// list turns the rest of the sequence into a no-op.
func (p *Parser) pushParam() bool {
	if len(p.params) >= maxParams {
		p.state = StateCsiIgnore
		return false
	}
	p.params = append(p.params, p.curParam)
	p.curParam = 0
	return true
}

func (p *Parser) ground(b byte) {
	switch {
	case b < 0x20:
		p.execute(b)
	case b < 0x7f:
		p.print(rune(b))
	case b == 0x7f: // DEL
	case b < 0xc0:
		// Stray continuation byte.
		p.print(utf8.RuneError)
	case b < 0xe0:
		p.utf8Start(b, 2)
	case b < 0xf0:
		p.utf8Start(b, 3)
	case b < 0xf8:
		p.utf8Start(b, 4)
	default:
		p.print(utf8.RuneError)
	}
}

func (p *Parser) utf8Start(b byte, need int) {
	p.utf8Buf[0] = b
	p.utf8Len = 1
	p.utf8Need = need
}

func (p *Parser) escape(b byte) {
	switch {
	case b >= 0x20 && b <= 0x2f:
		p.intermediates = append(p.intermediates, b)
		p.state = StateEscapeIntermediate
	case b == '[':
		p.clear()
		p.state = StateCsiEntry
	case b == ']':
		p.oscData = p.oscData[:0]
		p.state = StateOscString
	case b == 'P' || b == 'X' || b == '^' || b == '_': // DCS, SOS, PM, APC
		p.state = StateStringConsume
	case b >= 0x30 && b <= 0x7e:
		p.dispatchEsc(b)
	}
}

func (p *Parser) escapeIntermediate(b byte) {
	switch {
	case b >= 0x20 && b <= 0x2f:
		p.intermediates = append(p.intermediates, b)
	case b >= 0x30 && b <= 0x7e:
		p.dispatchEsc(b)
	}
}

func (p *Parser) csiEntry(b byte) {
	switch {
	case b >= '0' && b <= '9':
		p.curParam = int(b - '0')
		p.state = StateCsiParam
	case b == ';' || b == ':':
		if p.pushParam() {
			p.state = StateCsiParam
		}
	case b >= 0x3c && b <= 0x3f:
		// Private marker, e.g. '?'.
		p.intermediates = append(p.intermediates, b)
		p.state = StateCsiParam
	case b >= 0x20 && b <= 0x2f:
		p.intermediates = append(p.intermediates, b)
		p.state = StateCsiIntermediate
	case b >= 0x40 && b <= 0x7e:
		p.dispatchCsi(b)
	default:
		p.state = StateCsiIgnore
	}
}

func (p *Parser) csiParam(b byte) {
	switch {
	case b >= '0' && b <= '9':
		p.curParam = p.curParam*10 + int(b-'0')
		if p.curParam > maxParamValue {
			p.curParam = maxParamValue
		}
	case b == ';' || b == ':':
		p.pushParam()
	case b >= 0x20 && b <= 0x2f:
		if p.pushParam() {
			p.intermediates = append(p.intermediates, b)
			p.state = StateCsiIntermediate
		}
	case b >= 0x40 && b <= 0x7e:
		if p.pushParam() {
			p.dispatchCsi(b)
		} else {
			// The final byte still ends the sequence.
			p.state = StateGround
		}
	default:
		p.state = StateCsiIgnore
	}
}

func (p *Parser) csiIntermediate(b byte) {
	switch {
	case b >= 0x20 && b <= 0x2f:
		p.intermediates = append(p.intermediates, b)
	case b >= 0x40 && b <= 0x7e:
		p.dispatchCsi(b)
	default:
		p.state = StateCsiIgnore
	}
}

func (p *Parser) csiIgnore(b byte) {
	if b >= 0x40 && b <= 0x7e {
		p.state = StateGround
	}
}

func (p *Parser) oscString(b byte) {
	switch b {
	case 0x07, 0x9c: // BEL, 8-bit ST
		p.dispatchOsc()
		p.state = StateGround
	default:
		if len(p.oscData) < maxOscBytes {
			p.oscData = append(p.oscData, b)
		}
	}
}
