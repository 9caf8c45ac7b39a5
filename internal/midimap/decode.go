package midimap

import (
	"errors"
	"fmt"

	"gitlab.com/gomidi/midi/v2"
)

// ErrMalformed marks a byte sequence that is not a valid MIDI message.
var ErrMalformed = errors.New("malformed MIDI message")

// Kind is the decoded message type the mapper cares about.
type Kind int

const (
	KindOther Kind = iota
	KindNoteOn
	KindNoteOff
	KindPitchBend
)

func (k Kind) String() string {
	switch k {
	case KindNoteOn:
		return "NoteOn"
	case KindNoteOff:
		return "NoteOff"
	case KindPitchBend:
		return "PitchBend"
	default:
		return "Other"
	}
}

// Event is one decoded channel-voice message.
type Event struct {
	Kind     Kind
	Channel  uint8
	Note     uint8
	Velocity uint8
	Bend     uint16 // 0..16383, centre 8192
}

// Decode validates raw and extracts the note and pitch-bend messages.
// Other well-formed messages decode to KindOther. A note-on with velocity 0
// decodes as a note-off.
func Decode(raw []byte) (Event, error) {
	if err := validate(raw); err != nil {
		return Event{}, err
	}
	msg := midi.Message(raw)
	var ev Event
	var rel int16
	switch {
	case msg.GetNoteStart(&ev.Channel, &ev.Note, &ev.Velocity):
		ev.Kind = KindNoteOn
	case msg.GetNoteEnd(&ev.Channel, &ev.Note):
		ev.Kind = KindNoteOff
		if raw[0]&0xF0 == 0x80 {
			ev.Velocity = raw[2]
		}
	case msg.GetPitchBend(&ev.Channel, &rel, &ev.Bend):
		ev.Kind = KindPitchBend
	default:
		ev = Event{Kind: KindOther, Channel: raw[0] & 0x0F}
		if raw[0] >= 0xF0 {
			ev.Channel = 0
		}
	}
	return ev, nil
}

// validate checks framing: a leading status byte, the data length that
// status requires and 7-bit data bytes.
func validate(raw []byte) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: empty", ErrMalformed)
	}
	status := raw[0]
	if status < 0x80 {
		return fmt.Errorf("%w: missing status byte (0x%02X)", ErrMalformed, status)
	}
	want := dataLen(status)
	if want < 0 {
		// System exclusive and other variable-length system messages are
		// outside the channel-voice set and not checked further.
		return nil
	}
	if len(raw)-1 != want {
		return fmt.Errorf("%w: status 0x%02X wants %d data bytes, got %d", ErrMalformed, status, want, len(raw)-1)
	}
	for i, b := range raw[1:] {
		if b >= 0x80 {
			return fmt.Errorf("%w: data byte %d is 0x%02X", ErrMalformed, i+1, b)
		}
	}
	return nil
}

// dataLen returns the number of data bytes for a status byte, or -1 when the
// length is variable.
func dataLen(status byte) int {
	switch status & 0xF0 {
	case 0x80, 0x90, 0xA0, 0xB0, 0xE0:
		return 2
	case 0xC0, 0xD0:
		return 1
	}
	switch status {
	case 0xF1, 0xF3:
		return 1
	case 0xF2:
		return 2
	case 0xF0, 0xF7:
		return -1
	}
	return 0
}
