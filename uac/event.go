package uac

import "fmt"

// Event is the kind of audio function event delivered to a [ControlHandler].
// Record and playback events come from alternate setting changes on the
// streaming interfaces; the rest are class-specific control requests.
type Event uint8

// Audio function events.
const (
	EventUnknown Event = iota
	EventRecordStart
	EventRecordStop
	EventPlaybackStart
	EventPlaybackStop
	EventSetCur
	EventGetCur
	EventSetMin
	EventGetMin
	EventSetMax
	EventGetMax
	EventSetRes
	EventGetRes
	EventSetMem
	EventGetMem
	EventGetStat
)

// String returns the class name of the event.
func (e Event) String() string {
	switch e {
	case EventRecordStart:
		return "RECORD_START"
	case EventRecordStop:
		return "RECORD_STOP"
	case EventPlaybackStart:
		return "PLAYBACK_START"
	case EventPlaybackStop:
		return "PLAYBACK_STOP"
	case EventSetCur:
		return "SET_CUR"
	case EventGetCur:
		return "GET_CUR"
	case EventSetMin:
		return "SET_MIN"
	case EventGetMin:
		return "GET_MIN"
	case EventSetMax:
		return "SET_MAX"
	case EventGetMax:
		return "GET_MAX"
	case EventSetRes:
		return "SET_RES"
	case EventGetRes:
		return "GET_RES"
	case EventSetMem:
		return "SET_MEM"
	case EventGetMem:
		return "GET_MEM"
	case EventGetStat:
		return "GET_STAT"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(e))
	}
}

// EventForRequest maps a class-specific bRequest code to its event.
func EventForRequest(request uint8) Event {
	switch request {
	case RequestSetCur:
		return EventSetCur
	case RequestGetCur:
		return EventGetCur
	case RequestSetMin:
		return EventSetMin
	case RequestGetMin:
		return EventGetMin
	case RequestSetMax:
		return EventSetMax
	case RequestGetMax:
		return EventGetMax
	case RequestSetRes:
		return EventSetRes
	case RequestGetRes:
		return EventGetRes
	case RequestSetMem:
		return EventSetMem
	case RequestGetMem:
		return EventGetMem
	case RequestGetStat:
		return EventGetStat
	default:
		return EventUnknown
	}
}

// Selector identifies the control a class request addresses. Feature unit
// and endpoint selectors share wire codes, so the wire value alone is
// ambiguous; Selector is resolved with the request recipient.
type Selector uint8

// Controls addressable on the microphone function.
const (
	SelectorUndefined Selector = iota
	SelectorMute
	SelectorVolume
	SelectorBass
	SelectorMid
	SelectorTreble
	SelectorGraphicEqualizer
	SelectorAutomaticGain
	SelectorDelay
	SelectorBassBoost
	SelectorLoudness
	SelectorSamplingFrequency
	SelectorPitch
)

var selectorNames = [...]string{
	SelectorUndefined:         "undefined",
	SelectorMute:              "mute",
	SelectorVolume:            "volume",
	SelectorBass:              "bass",
	SelectorMid:               "mid",
	SelectorTreble:            "treble",
	SelectorGraphicEqualizer:  "graphic_equalizer",
	SelectorAutomaticGain:     "automatic_gain",
	SelectorDelay:             "delay",
	SelectorBassBoost:         "bass_boost",
	SelectorLoudness:          "loudness",
	SelectorSamplingFrequency: "sampling_frequency",
	SelectorPitch:             "pitch",
}

// String returns the lower-case control name.
func (s Selector) String() string {
	if int(s) < len(selectorNames) {
		return selectorNames[s]
	}
	return fmt.Sprintf("selector(%d)", uint8(s))
}

// ParseSelector returns the selector with the given name as printed by
// [Selector.String].
func ParseSelector(name string) (Selector, bool) {
	for i, n := range selectorNames {
		if n == name {
			return Selector(i), true
		}
	}
	return SelectorUndefined, false
}

// FeatureUnitSelector maps a feature unit control selector code.
func FeatureUnitSelector(cs uint8) Selector {
	if cs >= FUMuteControl && cs <= FULoudnessControl {
		return SelectorMute + Selector(cs-FUMuteControl)
	}
	return SelectorUndefined
}

// EndpointSelector maps an endpoint control selector code.
func EndpointSelector(cs uint8) Selector {
	switch cs {
	case EPSamplingFreqControl:
		return SelectorSamplingFrequency
	case EPPitchControl:
		return SelectorPitch
	default:
		return SelectorUndefined
	}
}

// WireCode returns the control selector code and the recipient the selector
// is addressed through.
func (s Selector) WireCode() (cs uint8, recipient uint8) {
	switch {
	case s >= SelectorMute && s <= SelectorLoudness:
		return FUMuteControl + uint8(s-SelectorMute), RequestRecipientInterface
	case s == SelectorSamplingFrequency:
		return EPSamplingFreqControl, RequestRecipientEndpoint
	case s == SelectorPitch:
		return EPPitchControl, RequestRecipientEndpoint
	default:
		return 0, RequestRecipientInterface
	}
}

// IsGetRequest reports whether a class-specific bRequest code reads from
// the device.
func IsGetRequest(request uint8) bool {
	return request&0x80 != 0
}

// RequestForName maps a lower-case request name ("set_cur", "get_res", ...)
// to its bRequest code.
func RequestForName(name string) (uint8, bool) {
	switch name {
	case "set_cur":
		return RequestSetCur, true
	case "get_cur":
		return RequestGetCur, true
	case "set_min":
		return RequestSetMin, true
	case "get_min":
		return RequestGetMin, true
	case "set_max":
		return RequestSetMax, true
	case "get_max":
		return RequestGetMax, true
	case "set_res":
		return RequestSetRes, true
	case "get_res":
		return RequestGetRes, true
	default:
		return 0, false
	}
}
