package capture

import (
	"testing"

	"github.com/ardnew/usbmic/hal"
)

// mockMic is a sample source that returns a running sequence number in the
// low 16 bits of every word and records calls.
type mockMic struct {
	seq           uint16
	reads         []hal.Channel
	active        bool
	activations   int
	deactivations int

	// Called at the start of ActivateChannels
	onActivate func()
}

func (m *mockMic) ReadWord(ch hal.Channel) uint32 {
	m.reads = append(m.reads, ch)
	m.seq++
	return 0xA5A50000 | uint32(m.seq)
}

func (m *mockMic) ActivateChannels() {
	if m.onActivate != nil {
		m.onActivate()
	}
	m.active = true
	m.activations++
}

func (m *mockMic) DeactivateChannels() {
	m.active = false
	m.deactivations++
}

func testFormats(t *testing.T) FormatTable {
	t.Helper()
	formats, err := NewFormatTable(16000, 32000, 48000)
	if err != nil {
		t.Fatalf("NewFormatTable() error = %v", err)
	}
	return formats
}

const testFeatureUnit = 2

func newTestSession(t *testing.T) (*Session, *mockMic) {
	t.Helper()
	mic := &mockMic{}
	s, err := NewSession(Config{
		Formats:     testFormats(t),
		FeatureUnit: testFeatureUnit,
	}, mic, mic)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return s, mic
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
