// Package imagesniff classifies raw image bytes by their leading magic
// signatures. Sniffing is authoritative: a declared content type is never
// trusted as ground truth, which prevents content-type spoofing.
package imagesniff

import (
	"bytes"
	"errors"
)

type Kind int

const (
	JPEG Kind = iota + 1
	PNG
	WEBP
)

// ErrUnsupported is returned when no known signature matches.
var ErrUnsupported = errors.New("unsupported media type")

func (k Kind) String() string {
	switch k {
	case JPEG:
		return "jpeg"
	case PNG:
		return "png"
	case WEBP:
		return "webp"
	default:
		return "unknown"
	}
}

func (k Kind) ContentType() string {
	switch k {
	case JPEG:
		return "image/jpeg"
	case PNG:
		return "image/png"
	case WEBP:
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

func (k Kind) Ext() string {
	switch k {
	case JPEG:
		return ".jpg"
	case PNG:
		return ".png"
	case WEBP:
		return ".webp"
	default:
		return ""
	}
}

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	riffMagic = []byte("RIFF")
	webpMagic = []byte("WEBP")
)

// Detect tests the fixed signatures in priority order against the first
// bytes of the data. A few dozen bytes are enough.
func Detect(prefix []byte) (Kind, error) {
	switch {
	case bytes.HasPrefix(prefix, jpegMagic):
		return JPEG, nil
	case bytes.HasPrefix(prefix, pngMagic):
		return PNG, nil
	case isWebP(prefix):
		return WEBP, nil
	default:
		return 0, ErrUnsupported
	}
}

// isWebP checks the RIFF container marker at bytes 0-3 and the WEBP form
// type at bytes 8-11.
func isWebP(prefix []byte) bool {
	return len(prefix) >= 12 &&
		bytes.Equal(prefix[0:4], riffMagic) &&
		bytes.Equal(prefix[8:12], webpMagic)
}
