package resource

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a packed 0xRRGGBBAA value.
type Color uint32

// RGBA packs four channels into a Color.
func RGBA(r, g, b, a uint8) Color {
	return Color(uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | uint32(a))
}

// Channels unpacks c.
func (c Color) Channels() (r, g, b, a uint8) {
	return uint8(c >> 24), uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Hex renders c as #RRGGBBAA.
func (c Color) Hex() string {
	return fmt.Sprintf("#%08X", uint32(c))
}

// RGBAString renders c as "r;g;b;a".
func (c Color) RGBAString() string {
	r, g, b, a := c.Channels()
	return fmt.Sprintf("%d;%d;%d;%d", r, g, b, a)
}

// ParseHex parses #RRGGBBAA. The leading '#' is optional and a six digit
// value is read as fully opaque.
func ParseHex(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(h) {
	case 6:
		h += "FF"
	case 8:
	default:
		return 0, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return Color(v), nil
}

// ParseRGBA parses four ';' separated channel values in 0..255.
func ParseRGBA(s string) (Color, error) {
	parts := strings.Split(s, ";")
	if len(parts) != 4 {
		return 0, fmt.Errorf("invalid rgba color %q: want 4 components, got %d", s, len(parts))
	}
	var ch [4]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid rgba color %q: component %d: %w", s, i, err)
		}
		ch[i] = uint8(v)
	}
	return RGBA(ch[0], ch[1], ch[2], ch[3]), nil
}
