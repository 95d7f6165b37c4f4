package convert

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		c    color.NRGBA
		want ink
	}{
		{"black", color.NRGBA{A: 255}, inkBlack},
		{"dark grey", color.NRGBA{R: 50, G: 50, B: 50, A: 255}, inkBlack},
		{"white", color.NRGBA{R: 255, G: 255, B: 255, A: 255}, inkWhite},
		{"light grey", color.NRGBA{R: 200, G: 200, B: 200, A: 255}, inkWhite},
		{"accent red", color.NRGBA{R: 0xd1, G: 0x6d, B: 0x7a, A: 255}, inkRed},
		{"pure red", color.NRGBA{R: 255, A: 255}, inkRed},
		{"transparent black", color.NRGBA{A: 10}, inkWhite},
		{"blue", color.NRGBA{R: 20, G: 60, B: 250, A: 255}, inkWhite},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, classify(tc.c), tc.name)
	}
}

func TestTricolor(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 20, 13, 21))
	src.SetNRGBA(10, 20, color.NRGBA{A: 255})
	src.SetNRGBA(11, 20, color.NRGBA{R: 255, A: 255})
	src.SetNRGBA(12, 20, color.NRGBA{R: 240, G: 240, B: 240, A: 255})

	out := Tricolor(src)
	assert.Equal(t, src.Bounds(), out.Bounds())
	assert.Equal(t, uint8(inkBlack), out.ColorIndexAt(10, 20))
	assert.Equal(t, uint8(inkRed), out.ColorIndexAt(11, 20))
	assert.Equal(t, uint8(inkWhite), out.ColorIndexAt(12, 20))
}

func TestTricolorFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "month.png")
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{R: 30, G: 30, B: 30, A: 255})

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, src))
	require.NoError(t, f.Close())

	require.NoError(t, TricolorFile(path))

	f, err = os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	p, ok := img.(*image.Paletted)
	require.True(t, ok)
	assert.Equal(t, uint8(inkRed), p.ColorIndexAt(0, 0))
	assert.Equal(t, uint8(inkBlack), p.ColorIndexAt(1, 0))

	assert.Error(t, TricolorFile(filepath.Join(t.TempDir(), "missing.png")))
}
