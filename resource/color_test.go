package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#87CEEBFF")
	require.NoError(t, err)
	assert.Equal(t, RGBA(0x87, 0xCE, 0xEB, 0xFF), c)
	assert.Equal(t, "#87CEEBFF", c.Hex())

	c, err = ParseHex("102030")
	require.NoError(t, err)
	r, g, b, a := c.Channels()
	assert.Equal(t, [4]uint8{0x10, 0x20, 0x30, 0xFF}, [4]uint8{r, g, b, a})

	for _, bad := range []string{"", "#123", "#GGGGGGGG", "#1234567890"} {
		_, err := ParseHex(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseRGBA(t *testing.T) {
	c, err := ParseRGBA("1;2;3;4")
	require.NoError(t, err)
	assert.Equal(t, RGBA(1, 2, 3, 4), c)
	assert.Equal(t, "1;2;3;4", c.RGBAString())

	c, err = ParseRGBA(" 255 ; 0;128;0")
	require.NoError(t, err)
	assert.Equal(t, RGBA(255, 0, 128, 0), c)

	for _, bad := range []string{"1;2;3", "1;2;3;4;5", "256;0;0;0", "a;b;c;d", "-1;0;0;0"} {
		_, err := ParseRGBA(bad)
		assert.Error(t, err, bad)
	}
}
