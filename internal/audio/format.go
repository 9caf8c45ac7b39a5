package audio

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedFormat  = errors.New("unsupported sample format")
	ErrBackendUnavailable = errors.New("audio backend not available in this build")
)

// Format is the sample representation the output device expects.
type Format int

const (
	FormatFloat32 Format = iota
	FormatInt16
	FormatUint8
)

func (f Format) String() string {
	switch f {
	case FormatFloat32:
		return "f32"
	case FormatInt16:
		return "s16"
	case FormatUint8:
		return "u8"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// BytesPerSample is the encoded width of one sample.
func (f Format) BytesPerSample() int {
	switch f {
	case FormatFloat32:
		return 4
	case FormatInt16:
		return 2
	case FormatUint8:
		return 1
	default:
		return 0
	}
}

func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "f32", "float32", "":
		return FormatFloat32, nil
	case "s16", "i16", "int16":
		return FormatInt16, nil
	case "u8", "uint8":
		return FormatUint8, nil
	default:
		return 0, fmt.Errorf("%w: %q (expected f32|s16|u8)", ErrUnsupportedFormat, name)
	}
}

func toFloat32(x float64) float32 { return float32(x) }

func toInt16(x float64) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}
	return int16(x * 32767)
}

func toUint8(x float64) uint8 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}
	return uint8((x + 1) * 127.5)
}
