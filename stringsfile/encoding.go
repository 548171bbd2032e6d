package stringsfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrMalformed marks bytes that are not valid text in the file encoding.
var ErrMalformed = errors.New("malformed text")

// Encoding is the on-disk text encoding of .strings files.
type Encoding int

const (
	// UTF16 reads either byte order (BOM decides, little-endian without
	// one) and writes little-endian with a BOM.
	UTF16 Encoding = iota
	// UTF16LE is little-endian UTF-16 without a BOM on write.
	UTF16LE
	// UTF16BE is big-endian UTF-16 without a BOM on write.
	UTF16BE
	// UTF8 is UTF-8 without a BOM on write.
	UTF8
)

// ParseEncoding maps a configuration name to an Encoding.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-16", "utf16":
		return UTF16, nil
	case "utf-16le", "utf16le":
		return UTF16LE, nil
	case "utf-16be", "utf16be":
		return UTF16BE, nil
	case "utf-8", "utf8":
		return UTF8, nil
	}
	return UTF16, fmt.Errorf("unknown encoding %q (valid: utf-16, utf-16le, utf-16be, utf-8)", name)
}

func (e Encoding) String() string {
	switch e {
	case UTF16LE:
		return "utf-16le"
	case UTF16BE:
		return "utf-16be"
	case UTF8:
		return "utf-8"
	default:
		return "utf-16"
	}
}

// fallback is the decoding used when the data carries no BOM.
func (e Encoding) fallback() encoding.Encoding {
	switch e {
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	case UTF8:
		return unicode.UTF8
	default:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	}
}

func (e Encoding) encoder() *encoding.Encoder {
	switch e {
	case UTF16:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	case UTF8:
		return unicode.UTF8.NewEncoder()
	default:
		return e.fallback().NewEncoder()
	}
}

// Decode converts file bytes to text. A leading BOM always wins over the
// configured byte order and is not part of the result. Malformed input
// (odd UTF-16 length, unpaired surrogates, invalid UTF-8) is an
// ErrMalformed error rather than U+FFFD in the text.
func (e Encoding) Decode(data []byte) (string, error) {
	if err := e.validate(data); err != nil {
		return "", err
	}
	dec := unicode.BOMOverride(e.fallback().NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// validate rejects input the x/text decoders would silently repair.
// BOM detection matches unicode.BOMOverride.
func (e Encoding) validate(data []byte) error {
	var order binary.ByteOrder
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return validUTF8(data[3:])
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		order, data = binary.LittleEndian, data[2:]
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		order, data = binary.BigEndian, data[2:]
	case e == UTF8:
		return validUTF8(data)
	case e == UTF16BE:
		order = binary.BigEndian
	default:
		order = binary.LittleEndian
	}

	if len(data)%2 != 0 {
		return fmt.Errorf("%w: odd byte count %d for UTF-16", ErrMalformed, len(data))
	}
	for i := 0; i < len(data); i += 2 {
		u := rune(order.Uint16(data[i:]))
		if !utf16.IsSurrogate(u) {
			continue
		}
		if u < 0xDC00 && i+4 <= len(data) {
			if next := rune(order.Uint16(data[i+2:])); next >= 0xDC00 && next <= 0xDFFF {
				i += 2
				continue
			}
		}
		return fmt.Errorf("%w: unpaired surrogate %#04x at code unit %d", ErrMalformed, u, i/2)
	}
	return nil
}

func validUTF8(data []byte) error {
	if !utf8.Valid(data) {
		return fmt.Errorf("%w: invalid UTF-8", ErrMalformed)
	}
	return nil
}

// Encode converts text to file bytes. Empty text encodes to no bytes,
// without a BOM.
func (e Encoding) Encode(text string) ([]byte, error) {
	if text == "" {
		return []byte{}, nil
	}
	out, _, err := transform.Bytes(e.encoder(), []byte(text))
	if err != nil {
		return nil, err
	}
	return out, nil
}
