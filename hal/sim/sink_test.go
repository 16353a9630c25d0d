package sim

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"

	"github.com/ardnew/usbmic/pkg"
)

func TestRawSink(t *testing.T) {
	var out bytes.Buffer
	sink := NewRawSink(&out)

	packets := [][]byte{{1, 2, 3, 4}, {5, 6, 7, 8}}
	for i, p := range packets {
		if err := sink.WritePacket(uint64(i+1), p); err != nil {
			t.Fatalf("WritePacket() error = %v", err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if want := []byte{1, 2, 3, 4, 5, 6, 7, 8}; !bytes.Equal(out.Bytes(), want) {
		t.Errorf("output = % X, want % X", out.Bytes(), want)
	}
	if sink.Bytes() != 8 {
		t.Errorf("Bytes() = %d, want 8", sink.Bytes())
	}
}

func TestWAVSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer f.Close()

	sink, err := NewWAVSink(f, 48000)
	if err != nil {
		t.Fatalf("NewWAVSink() error = %v", err)
	}

	// Two frames: (1, -1), (0x7FFF, -0x8000)
	packet := []byte{0x01, 0x00, 0xFF, 0xFF, 0xFF, 0x7F, 0x00, 0x80}
	for i := 0; i < 3; i++ {
		if err := sink.WritePacket(uint64(i+1), packet); err != nil {
			t.Fatalf("WritePacket() error = %v", err)
		}
	}
	if err := sink.WritePacket(4, packet[:3]); !errors.Is(err, pkg.ErrInvalidFormat) {
		t.Errorf("WritePacket(short) error = %v, want %v", err, pkg.ErrInvalidFormat)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if sink.Frames() != 6 {
		t.Errorf("Frames() = %d, want 6", sink.Frames())
	}

	if _, err := f.Seek(0, 0); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer() error = %v", err)
	}
	if dec.SampleRate != 48000 || dec.NumChans != 2 || dec.BitDepth != 16 {
		t.Errorf("format = %d Hz, %d ch, %d bit, want 48000 Hz, 2 ch, 16 bit",
			dec.SampleRate, dec.NumChans, dec.BitDepth)
	}

	want := []int{1, -1, 0x7FFF, -0x8000}
	if len(buf.Data) != 3*len(want) {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), 3*len(want))
	}
	for i, v := range buf.Data {
		if v != want[i%len(want)] {
			t.Errorf("sample %d = %d, want %d", i, v, want[i%len(want)])
		}
	}
}

func TestNewWAVSinkInvalid(t *testing.T) {
	if _, err := NewWAVSink(nil, 48000); !errors.Is(err, pkg.ErrInvalidParameter) {
		t.Errorf("NewWAVSink(nil) error = %v, want %v", err, pkg.ErrInvalidParameter)
	}
}

func TestDiscardSink(t *testing.T) {
	var sink PacketSink = DiscardSink{}
	if err := sink.WritePacket(1, []byte{1, 2, 3, 4}); err != nil {
		t.Errorf("WritePacket() error = %v", err)
	}
}
