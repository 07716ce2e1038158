package vm

import "strings"

// ---------------------------------------------------------------------------
// ASCII conventions
// ---------------------------------------------------------------------------

// Several Intcode programs speak a line-oriented ASCII protocol: each input
// value is one byte of text, commands end with a newline, and outputs are
// bytes except for occasional large values carrying a numeric answer.

// PushASCII queues each byte of s as one input value.
func (m *Machine) PushASCII(s string) {
	for i := 0; i < len(s); i++ {
		m.PushInput(Value(s[i]))
	}
}

// PushASCIILine queues s followed by a newline, the usual command framing.
func (m *Machine) PushASCIILine(s string) {
	m.PushASCII(s + "\n")
}

// DrainASCII drains the output queue and renders every value as an ASCII
// byte. Values outside byte range are dropped; use DrainASCIIKeepLarge when
// the program mixes text with numeric answers.
func (m *Machine) DrainASCII() string {
	text, _ := m.DrainASCIIKeepLarge()
	return text
}

// DrainASCIIKeepLarge drains the output queue, rendering values in byte
// range as text and collecting the rest separately.
func (m *Machine) DrainASCIIKeepLarge() (string, []Value) {
	var b strings.Builder
	var large []Value
	for _, v := range m.DrainOutputs() {
		if v >= 0 && v < 128 {
			b.WriteByte(byte(v))
		} else {
			large = append(large, v)
		}
	}
	return b.String(), large
}
