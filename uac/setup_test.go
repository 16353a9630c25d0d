package uac

import (
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/usbmic/pkg"
)

func TestParseSetupPacket(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    SetupPacket
		wantErr bool
	}{
		{
			name: "SET_CUR mute",
			data: []byte{0x21, 0x01, 0x00, 0x01, 0x00, 0x02, 0x01, 0x00},
			want: SetupPacket{
				RequestType: 0x21,
				Request:     RequestSetCur,
				Value:       0x0100,
				Index:       0x0200,
				Length:      1,
			},
		},
		{
			name: "GET_CUR sampling frequency",
			data: []byte{0xA2, 0x81, 0x00, 0x01, 0x81, 0x00, 0x03, 0x00},
			want: SetupPacket{
				RequestType: 0xA2,
				Request:     RequestGetCur,
				Value:       0x0100,
				Index:       0x0081,
				Length:      3,
			},
		},
		{
			name:    "too short",
			data:    []byte{0x21, 0x01, 0x00},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got SetupPacket
			err := ParseSetupPacket(tt.data, &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSetupPacket() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, pkg.ErrSetupPacketTooShort) {
					t.Errorf("error = %v, want ErrSetupPacketTooShort", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseSetupPacket() = %+v, want %+v", got, tt.want)
			}

			var buf [SetupPacketSize]byte
			if n := got.MarshalTo(buf[:]); n != SetupPacketSize {
				t.Fatalf("MarshalTo() = %d, want %d", n, SetupPacketSize)
			}
			if string(buf[:]) != string(tt.data) {
				t.Errorf("MarshalTo() = % X, want % X", buf, tt.data)
			}
		})
	}
}

func TestSetupPacketMarshalToShortBuffer(t *testing.T) {
	var s SetupPacket
	if n := s.MarshalTo(make([]byte, 4)); n != 0 {
		t.Errorf("MarshalTo() = %d, want 0", n)
	}
}

func TestFeatureUnitSetup(t *testing.T) {
	var s SetupPacket
	FeatureUnitSetup(&s, RequestGetMin, FUVolumeControl, 0, 2, 0, 2)

	if !s.IsClass() || !s.IsDeviceToHost() {
		t.Errorf("RequestType = 0x%02X, want class device-to-host", s.RequestType)
	}
	if s.Recipient() != RequestRecipientInterface {
		t.Errorf("Recipient() = %d, want interface", s.Recipient())
	}
	if s.ControlSelector() != FUVolumeControl {
		t.Errorf("ControlSelector() = %d, want %d", s.ControlSelector(), FUVolumeControl)
	}
	if s.UnitID() != 2 || s.InterfaceNumber() != 0 {
		t.Errorf("UnitID()=%d InterfaceNumber()=%d, want 2, 0", s.UnitID(), s.InterfaceNumber())
	}
	if s.ChannelNumber() != 0 {
		t.Errorf("ChannelNumber() = %d, want 0", s.ChannelNumber())
	}
}

func TestEndpointSetup(t *testing.T) {
	var s SetupPacket
	EndpointSetup(&s, RequestSetCur, EPSamplingFreqControl, 0x81, 3)

	if s.RequestType != 0x22 {
		t.Errorf("RequestType = 0x%02X, want 0x22", s.RequestType)
	}
	if s.EndpointAddress() != 0x81 {
		t.Errorf("EndpointAddress() = 0x%02X, want 0x81", s.EndpointAddress())
	}
	if !strings.Contains(s.String(), "SET_CUR") || !strings.Contains(s.String(), "Endpoint") {
		t.Errorf("String() = %q", s.String())
	}
}

func TestUint24(t *testing.T) {
	var b [3]byte
	PutUint24(b[:], 32000)
	if b != [3]byte{0x00, 0x7D, 0x00} {
		t.Errorf("PutUint24(32000) = % X, want 00 7D 00", b)
	}
	if got := Uint24(b[:]); got != 32000 {
		t.Errorf("Uint24() = %d, want 32000", got)
	}

	PutUint24(b[:], 44100)
	if b != [3]byte{0x44, 0xAC, 0x00} {
		t.Errorf("PutUint24(44100) = % X, want 44 AC 00", b)
	}
}
