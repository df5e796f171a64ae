package vt

import (
	"reflect"
	"testing"
)

type recordedCsi struct {
	params        []int
	intermediates string
	final         byte
}

type recordedEsc struct {
	intermediates string
	final         byte
}

// recorder captures parser actions for assertions.
type recorder struct {
	prints   []rune
	executes []byte
	csis     []recordedCsi
	escs     []recordedEsc
	oscs     []string
}

func newRecordingParser() (*Parser, *recorder) {
	rec := &recorder{}
	p := NewParser(Handler{
		Print:   func(r rune) { rec.prints = append(rec.prints, r) },
		Execute: func(b byte) { rec.executes = append(rec.executes, b) },
		HandleCsi: func(params []int, intermediates []byte, final byte) {
			cp := make([]int, len(params))
			copy(cp, params)
			rec.csis = append(rec.csis, recordedCsi{cp, string(intermediates), final})
		},
		HandleEsc: func(intermediates []byte, final byte) {
			rec.escs = append(rec.escs, recordedEsc{string(intermediates), final})
		},
		HandleOsc: func(data []byte) {
			rec.oscs = append(rec.oscs, string(data))
		},
	})
	return p, rec
}

func TestParserPlainText(t *testing.T) {
	p, rec := newRecordingParser()
	p.Write([]byte("hello"))
	if got := string(rec.prints); got != "hello" {
		t.Errorf("Expected prints %q, got %q", "hello", got)
	}
	if len(rec.executes) != 0 || len(rec.csis) != 0 {
		t.Errorf("Expected no control actions, got %d executes, %d CSIs",
			len(rec.executes), len(rec.csis))
	}
}

func TestParserCsiSequences(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		params        []int
		intermediates string
		final         byte
	}{
		{
			name:   "no parameters",
			input:  "\x1b[H",
			params: []int{},
			final:  'H',
		},
		{
			name:   "two parameters",
			input:  "\x1b[5;10H",
			params: []int{5, 10},
			final:  'H',
		},
		{
			name:   "empty first parameter",
			input:  "\x1b[;5H",
			params: []int{0, 5},
			final:  'H',
		},
		{
			name:   "empty trailing parameter",
			input:  "\x1b[5;H",
			params: []int{5, 0},
			final:  'H',
		},
		{
			name:          "private marker",
			input:         "\x1b[?25h",
			params:        []int{25},
			intermediates: "?",
			final:         'h',
		},
		{
			name:          "space intermediate without parameters",
			input:         "\x1b[ q",
			params:        []int{},
			intermediates: " ",
			final:         'q',
		},
		{
			name:          "space intermediate after parameter",
			input:         "\x1b[2 q",
			params:        []int{2},
			intermediates: " ",
			final:         'q',
		},
		{
			name:   "truecolor SGR",
			input:  "\x1b[38;2;255;0;0m",
			params: []int{38, 2, 255, 0, 0},
			final:  'm',
		},
		{
			name:   "colon separators",
			input:  "\x1b[38:5:196m",
			params: []int{38, 5, 196},
			final:  'm',
		},
		{
			name:   "oversized value saturates",
			input:  "\x1b[99999999d",
			params: []int{65535},
			final:  'd',
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, rec := newRecordingParser()
			p.Write([]byte(tt.input))
			if len(rec.csis) != 1 {
				t.Fatalf("Expected 1 CSI dispatch, got %d", len(rec.csis))
			}
			got := rec.csis[0]
			if !reflect.DeepEqual(got.params, tt.params) {
				t.Errorf("Expected params %v, got %v", tt.params, got.params)
			}
			if got.intermediates != tt.intermediates {
				t.Errorf("Expected intermediates %q, got %q", tt.intermediates, got.intermediates)
			}
			if got.final != tt.final {
				t.Errorf("Expected final %q, got %q", tt.final, got.final)
			}
		})
	}
}

func TestParserCsiParamOverflow(t *testing.T) {
	p, rec := newRecordingParser()
	// 20 parameters exceed the limit; the sequence must vanish without
	// a dispatch and the parser must recover for following text.
	p.Write([]byte("\x1b[1;2;3;4;5;6;7;8;9;10;11;12;13;14;15;16;17;18;19;20mok"))
	if len(rec.csis) != 0 {
		t.Errorf("Expected no CSI dispatch after overflow, got %d", len(rec.csis))
	}
	if got := string(rec.prints); got != "ok" {
		t.Errorf("Expected prints %q, got %q", "ok", got)
	}
}

func TestParserMalformedCsiDiscarded(t *testing.T) {
	p, rec := newRecordingParser()
	// A C0 byte inside a CSI invalidates the rest of the sequence.
	p.Write([]byte("\x1b[12\x01;3Hok"))
	if len(rec.csis) != 0 {
		t.Errorf("Expected no CSI dispatch, got %v", rec.csis)
	}
	if got := string(rec.prints); got != "ok" {
		t.Errorf("Expected prints %q, got %q", "ok", got)
	}
}

func TestParserCancelAbortsSequence(t *testing.T) {
	p, rec := newRecordingParser()
	p.Write([]byte("\x1b[5\x18A"))
	if len(rec.csis) != 0 {
		t.Errorf("Expected no CSI dispatch, got %v", rec.csis)
	}
	if len(rec.executes) != 1 || rec.executes[0] != 0x18 {
		t.Errorf("Expected CAN executed, got %v", rec.executes)
	}
	if got := string(rec.prints); got != "A" {
		t.Errorf("Expected prints %q, got %q", "A", got)
	}
}

func TestParserEscRestartsSequence(t *testing.T) {
	p, rec := newRecordingParser()
	p.Write([]byte("\x1b[5\x1b[3C"))
	if len(rec.csis) != 1 {
		t.Fatalf("Expected 1 CSI dispatch, got %d", len(rec.csis))
	}
	got := rec.csis[0]
	if got.final != 'C' || !reflect.DeepEqual(got.params, []int{3}) {
		t.Errorf("Expected CSI 3 C, got %c %v", got.final, got.params)
	}
}

func TestParserControlInEscapeStateIgnored(t *testing.T) {
	p, rec := newRecordingParser()
	p.Write([]byte("\x1b\n[5D"))
	if len(rec.csis) != 1 || rec.csis[0].final != 'D' {
		t.Fatalf("Expected CSI D dispatch, got %v", rec.csis)
	}
	if len(rec.executes) != 0 {
		t.Errorf("Expected no executes inside escape state, got %v", rec.executes)
	}
}

func TestParserOscTermination(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "BEL terminator", input: "\x1b]2;hello\x07", want: "2;hello"},
		{name: "7-bit ST terminator", input: "\x1b]2;world\x1b\\", want: "2;world"},
		{name: "8-bit ST terminator", input: "\x1b]2;x\x9c", want: "2;x"},
		{name: "empty payload", input: "\x1b]\x07", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, rec := newRecordingParser()
			p.Write([]byte(tt.input))
			if len(rec.oscs) != 1 {
				t.Fatalf("Expected 1 OSC dispatch, got %d", len(rec.oscs))
			}
			if rec.oscs[0] != tt.want {
				t.Errorf("Expected OSC payload %q, got %q", tt.want, rec.oscs[0])
			}
		})
	}
}

func TestParserOscAbortedByEsc(t *testing.T) {
	p, rec := newRecordingParser()
	// ESC followed by anything but backslash abandons the string and
	// starts a new sequence.
	p.Write([]byte("\x1b]0;title\x1b[2Jok"))
	if len(rec.oscs) != 0 {
		t.Errorf("Expected aborted OSC, got %v", rec.oscs)
	}
	if len(rec.csis) != 1 || rec.csis[0].final != 'J' {
		t.Errorf("Expected CSI J after abort, got %v", rec.csis)
	}
	if got := string(rec.prints); got != "ok" {
		t.Errorf("Expected prints %q, got %q", "ok", got)
	}
}

func TestParserOscSplitAcrossWrites(t *testing.T) {
	p, rec := newRecordingParser()
	p.Write([]byte("\x1b]0;ab"))
	if len(rec.oscs) != 0 {
		t.Fatalf("Expected no dispatch before terminator, got %v", rec.oscs)
	}
	p.Write([]byte("cd\x07"))
	if len(rec.oscs) != 1 || rec.oscs[0] != "0;abcd" {
		t.Errorf("Expected OSC %q, got %v", "0;abcd", rec.oscs)
	}
}

func TestParserStringPayloadsConsumed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "DCS", input: "\x1bP1;2|payload\x1b\\ok"},
		{name: "APC", input: "\x1b_Gi=1,a=d\x1b\\ok"},
		{name: "PM", input: "\x1b^private\x1b\\ok"},
		{name: "SOS", input: "\x1bXstart\x9cok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, rec := newRecordingParser()
			p.Write([]byte(tt.input))
			if got := string(rec.prints); got != "ok" {
				t.Errorf("Expected prints %q, got %q", "ok", got)
			}
			if len(rec.oscs) != 0 || len(rec.csis) != 0 || len(rec.escs) != 0 {
				t.Errorf("Expected payload consumed silently, got oscs=%v csis=%v escs=%v",
					rec.oscs, rec.csis, rec.escs)
			}
		})
	}
}

func TestParserEscDispatch(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		intermediates string
		final         byte
	}{
		{name: "save cursor", input: "\x1b7", final: '7'},
		{name: "alignment test", input: "\x1b#8", intermediates: "#", final: '8'},
		{name: "charset selection", input: "\x1b(B", intermediates: "(", final: 'B'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, rec := newRecordingParser()
			p.Write([]byte(tt.input))
			if len(rec.escs) != 1 {
				t.Fatalf("Expected 1 ESC dispatch, got %d", len(rec.escs))
			}
			got := rec.escs[0]
			if got.intermediates != tt.intermediates || got.final != tt.final {
				t.Errorf("Expected ESC %q %q, got %q %q",
					tt.intermediates, tt.final, got.intermediates, got.final)
			}
		})
	}
}

func TestParserUtf8(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "two byte", input: "héllo", want: "héllo"},
		{name: "three byte", input: "中文", want: "中文"},
		{name: "four byte", input: "a🎉b", want: "a🎉b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, rec := newRecordingParser()
			p.Write([]byte(tt.input))
			if got := string(rec.prints); got != tt.want {
				t.Errorf("Expected prints %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParserUtf8SplitAcrossWrites(t *testing.T) {
	p, rec := newRecordingParser()
	raw := []byte("中")
	p.Write(raw[:1])
	if len(rec.prints) != 0 {
		t.Fatalf("Expected no print before rune completes, got %v", rec.prints)
	}
	p.Write(raw[1:])
	if got := string(rec.prints); got != "中" {
		t.Errorf("Expected prints %q, got %q", "中", got)
	}
}

func TestParserInvalidUtf8(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{name: "invalid lead byte", input: []byte{0xff, 'a'}, want: "�a"},
		{name: "stray continuation", input: []byte{0x80, 'b'}, want: "�b"},
		{name: "truncated sequence", input: []byte{0xe4, 'A'}, want: "�A"},
		{name: "interrupted by escape", input: []byte{0xe4, 0x1b, '[', 'C'}, want: "�"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, rec := newRecordingParser()
			p.Write(tt.input)
			if got := string(rec.prints); got != tt.want {
				t.Errorf("Expected prints %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParserDelIgnored(t *testing.T) {
	p, rec := newRecordingParser()
	p.Write([]byte("a\x7fb"))
	if got := string(rec.prints); got != "ab" {
		t.Errorf("Expected prints %q, got %q", "ab", got)
	}
	if len(rec.executes) != 0 {
		t.Errorf("Expected DEL to be ignored, got executes %v", rec.executes)
	}
}

func TestParserControlsInterleavedWithText(t *testing.T) {
	p, rec := newRecordingParser()
	p.Write([]byte("a\r\nb"))
	if got := string(rec.prints); got != "ab" {
		t.Errorf("Expected prints %q, got %q", "ab", got)
	}
	if !reflect.DeepEqual(rec.executes, []byte{'\r', '\n'}) {
		t.Errorf("Expected executes CR LF, got %v", rec.executes)
	}
}
