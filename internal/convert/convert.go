// Package convert holds the front-end glue between the two binary
// raster codecs (pkg/rlelayer, pkg/packeddensity) and conventional PNG
// images: extension dispatch, PNG<->combined-pixel-buffer mapping, and
// channel-layout resolution via pkg/layout.
package convert

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/Paint-a-Farm/grleconvert/internal/codecerr"
	"github.com/Paint-a-Farm/grleconvert/pkg/layout"
	"github.com/Paint-a-Farm/grleconvert/pkg/packeddensity"
	"github.com/Paint-a-Farm/grleconvert/pkg/rlelayer"
)

// Options carries the caller-resolved parameters that would otherwise
// come from the scene descriptor, used as fallback/override input to
// layout.Resolve.
type Options struct {
	DescriptorPath string
	NumChannels    int // 0 means "unresolved, ask the descriptor"
	CompressAt     int // 0 means "no manual inner boundary"
}

// Decode reads a RLE-LAYER or PACKED-DENSITY file (selected by srcPath's
// extension) and writes the equivalent PNG to w.
func Decode(r io.Reader, srcPath string, w io.Writer) error {
	switch ext := strings.ToLower(filepath.Ext(srcPath)); ext {
	case ".grle":
		pixels, width, height, err := rlelayer.ReadFile(r)
		if err != nil {
			return err
		}
		return encodeGrayPNG(w, pixels, width, height)

	case ".gdm":
		combined, dimension, numChannels, _, err := packeddensity.ReadFile(r)
		if err != nil {
			return err
		}
		return encodeCombinedPNG(w, combined, dimension, numChannels)

	default:
		return codecerr.New(codecerr.Unsupported, srcPath, "unrecognized binary extension: "+ext)
	}
}

// Encode reads a PNG and writes it as a RLE-LAYER or PACKED-DENSITY
// file (selected by dstPath's extension) to w, resolving channel
// semantics via opts and the scene descriptor.
func Encode(r io.Reader, dstPath string, w io.Writer, opts Options) error {
	img, err := png.Decode(r)
	if err != nil {
		return codecerr.Wrap(codecerr.Unsupported, dstPath, "decoding PNG", err)
	}

	switch ext := strings.ToLower(filepath.Ext(dstPath)); ext {
	case ".grle":
		pixels, width, height, err := grayBufferFromImage(img)
		if err != nil {
			return err
		}
		return rlelayer.WriteFile(w, pixels, width, height)

	case ".gdm":
		l, err := resolveLayout(dstPath, opts, layout.FormatPackedDensity)
		if err != nil {
			return err
		}
		combined, dimension, err := combinedBufferFromImage(img, l.NumChannels)
		if err != nil {
			return err
		}
		return packeddensity.WriteFile(w, combined, dimension, l.NumChannels, l.RangeSplit)

	default:
		return codecerr.New(codecerr.Unsupported, dstPath, "unrecognized binary extension: "+ext)
	}
}

// resolveLayout consults the scene descriptor (when provided) and
// falls back to caller-supplied options.
func resolveLayout(targetPath string, opts Options, want layout.Format) (layout.Layout, error) {
	var fallback *layout.Layout
	if opts.NumChannels > 0 {
		var split []int
		if opts.CompressAt > 0 {
			split = []int{opts.CompressAt}
		}
		fallback = &layout.Layout{Format: want, NumChannels: opts.NumChannels, RangeSplit: split}
	}
	return layout.Resolve(opts.DescriptorPath, targetPath, fallback)
}

// DefaultOutputPath derives the companion output filename per spec.md
// §6: decode targets default to "<stem>.png"; encode targets default
// to the resolved binary extension.
func DefaultOutputPath(srcPath string, resolvedExt string) string {
	stem := strings.TrimSuffix(srcPath, filepath.Ext(srcPath))
	return stem + resolvedExt
}

// encodeGrayPNG writes an 8-bit grayscale PNG from a row-major pixel
// buffer (RLE-LAYER's native representation, numChannels <= 8).
func encodeGrayPNG(w io.Writer, pixels []byte, width, height int) error {
	img := image.NewGray(image.Rect(0, 0, width, height))
	copy(img.Pix, pixels)
	if err := png.Encode(w, img); err != nil {
		return codecerr.Wrap(codecerr.Io, "", "encoding PNG", err)
	}
	return nil
}

// encodeCombinedPNG emits grayscale when numChannels <= 8, else 8-bit
// RGB with R=bits[0:8), G=bits[8:16), B=bits[16:24) (§4.6).
func encodeCombinedPNG(w io.Writer, combined []uint32, dimension, numChannels int) error {
	if numChannels <= 8 {
		img := image.NewGray(image.Rect(0, 0, dimension, dimension))
		for i, v := range combined {
			img.Pix[i] = byte(v)
		}
		if err := png.Encode(w, img); err != nil {
			return codecerr.Wrap(codecerr.Io, "", "encoding PNG", err)
		}
		return nil
	}

	img := image.NewRGBA(image.Rect(0, 0, dimension, dimension))
	for i, v := range combined {
		x := i % dimension
		y := i / dimension
		img.SetRGBA(x, y, color.RGBA{
			R: byte(v),
			G: byte(v >> 8),
			B: byte(v >> 16),
			A: 0xFF,
		})
	}
	if err := png.Encode(w, img); err != nil {
		return codecerr.Wrap(codecerr.Io, "", "encoding PNG", err)
	}
	return nil
}

// grayBufferFromImage extracts an 8-bit single-channel pixel buffer
// for RLE-LAYER encoding. RGB/RGBA input takes the R byte; alpha is
// ignored (§6).
func grayBufferFromImage(img image.Image) ([]byte, int, int, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pixels := make([]byte, width*height)

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			pixels[i] = c.R
			i++
		}
	}
	return pixels, width, height, nil
}

// combinedBufferFromImage extracts per-pixel combined channel values
// for PACKED-DENSITY encoding. For numChannels > 8 the source must be
// RGB/RGBA (grayscale is rejected per §4.6); the dimension must be a
// power of two no smaller than 32.
func combinedBufferFromImage(img image.Image, numChannels int) ([]uint32, int, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width != height {
		return nil, 0, codecerr.New(codecerr.BadDimensions, "", "PACKED-DENSITY PNG must be square")
	}
	if !isPowerOfTwo(width) || width < 32 {
		return nil, 0, codecerr.New(codecerr.BadDimensions, "",
			"PACKED-DENSITY PNG dimension must be a power of two >= 32")
	}

	if numChannels > 8 {
		if _, isGray := img.(*image.Gray); isGray {
			return nil, 0, codecerr.New(codecerr.BadColorMode, "",
				"grayscale PNG cannot encode a PACKED-DENSITY layout with numChannels > 8")
		}
	}

	combined := make([]uint32, width*height)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if numChannels <= 8 {
				combined[i] = uint32(r >> 8)
			} else {
				combined[i] = uint32(r>>8) | uint32(g>>8)<<8 | uint32(b>>8)<<16
			}
			i++
		}
	}
	return combined, width, nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
