package capture

import (
	"encoding/binary"

	"github.com/ardnew/usbmic/uac"
)

// OnControlEvent handles an audio function event. len(buf) is the request
// length; GET events write at most len(buf) bytes of their response into
// buf. It returns false for unsupported events and selectors so the
// transport stalls the request. Malformed requests for supported selectors
// change nothing and still return true.
func (s *Session) OnControlEvent(event uac.Event, unit uint8, selector uac.Selector, buf []byte, alt uint8) bool {
	switch event {
	case uac.EventRecordStart:
		s.start()
		return true

	case uac.EventRecordStop:
		s.stop()
		return true

	case uac.EventPlaybackStart, uac.EventPlaybackStop:
		// Capture only
		return true

	case uac.EventSetCur:
		return s.setCur(unit, selector, buf, alt)

	case uac.EventGetCur:
		s.getCur(unit, selector, buf)
		return true

	case uac.EventGetMin, uac.EventGetMax, uac.EventGetRes:
		s.getRange(event, selector, buf)
		return true

	default:
		return false
	}
}

func (s *Session) setCur(unit uint8, selector uac.Selector, buf []byte, alt uint8) bool {
	switch selector {
	case uac.SelectorMute:
		if len(buf) == uac.MuteSize && unit == s.cfg.FeatureUnit {
			s.gate.SetMuted(buf[0] != 0)
		}
		return true

	case uac.SelectorSamplingFrequency:
		if len(buf) != uac.SamplingFreqSize || unit != s.cfg.FeatureUnit {
			return true
		}
		if index, ok := s.cfg.Formats.IndexForAlternate(alt); ok {
			s.format.Store(uint32(index))
		}
		return true

	case uac.SelectorVolume:
		// Gain is fixed; the control exists for enumeration only.
		return true

	default:
		return false
	}
}

func (s *Session) getCur(unit uint8, selector uac.Selector, buf []byte) {
	switch selector {
	case uac.SelectorMute:
		var v [uac.MuteSize]byte
		if s.gate.Muted() {
			v[0] = 1
		}
		copy(buf, v[:])

	case uac.SelectorVolume:
		var v [uac.VolumeSize]byte
		copy(buf, v[:])

	case uac.SelectorSamplingFrequency:
		// Nothing is written for a foreign unit.
		if unit != s.cfg.FeatureUnit {
			return
		}
		var v [uac.SamplingFreqSize]byte
		uac.PutUint24(v[:], s.Format().SampleRate)
		copy(buf, v[:])

	default:
		var v [2]byte
		copy(buf, v[:])
	}
}

func (s *Session) getRange(event uac.Event, selector uac.Selector, buf []byte) {
	var v [uac.VolumeSize]byte
	if selector == uac.SelectorVolume {
		var attr int16
		switch event {
		case uac.EventGetMin:
			attr = s.cfg.Volume.Min
		case uac.EventGetMax:
			attr = s.cfg.Volume.Max
		case uac.EventGetRes:
			attr = s.cfg.Volume.Res
		}
		binary.LittleEndian.PutUint16(v[:], uint16(attr))
	}
	copy(buf, v[:])
}
