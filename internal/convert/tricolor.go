// Package convert reduces captured month pages to a black/red/white palette,
// the colours tri-colour e-ink panels and two-ink printers can reproduce.
package convert

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
)

// Palette is the output palette. Index 0 (white) is the background.
var Palette = color.Palette{
	color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xff},
	color.NRGBA{R: 0xc0, G: 0x00, B: 0x00, A: 0xff},
}

type ink uint8

const (
	inkWhite ink = iota
	inkBlack
	inkRed
)

// Tricolor maps every pixel of img onto Palette.
func Tricolor(img image.Image) *image.Paletted {
	b := img.Bounds()
	out := image.NewPaletted(b, Palette)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.SetColorIndex(x, y, uint8(classify(c)))
		}
	}
	return out
}

// classify picks the ink for one pixel:
//
//   - translucent (alpha < 128) -> white
//   - luma Y = 0.299R + 0.587G + 0.114B below 64 -> black
//   - R > 128 and R - max(G, B) > 32 -> red
//   - anything else -> white
func classify(c color.NRGBA) ink {
	if c.A < 128 {
		return inkWhite
	}
	r, g, b := float64(c.R), float64(c.G), float64(c.B)

	y := 0.299*r + 0.587*g + 0.114*b
	if y < 64 {
		return inkBlack
	}

	maxGB := g
	if b > maxGB {
		maxGB = b
	}
	if r > 128 && r-maxGB > 32 {
		return inkRed
	}
	return inkWhite
}

// TricolorFile rewrites the PNG at path in place with Tricolor applied.
func TricolorFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	img, err := png.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("convert: decode %s: %w", filepath.Base(path), err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, Tricolor(img)); err != nil {
		return fmt.Errorf("convert: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tricolor-*.png")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
