package cmd

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/spf13/cobra"
)

// NewCompareCmd reports a pixel-level diff between two PNGs, useful
// for validating that decode(encode(x)) == x. Ported in idiom (not
// transliterated) from the original compare_pngs tool. Only the first
// channel of each pixel (gray, or red) is compared.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <png1> <png2>",
		Short: "report pixel differences between two PNGs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			maxDiffs, _ := cmd.Flags().GetInt("max-diffs")
			return runCompare(args[0], args[1], maxDiffs)
		},
	}
	cmd.Flags().Int("max-diffs", 20, "maximum number of individual differences to print")
	return cmd
}

func runCompare(path1, path2 string, maxDiffs int) error {
	img1, err := readPNG(path1)
	if err != nil {
		return err
	}
	img2, err := readPNG(path2)
	if err != nil {
		return err
	}

	b1, b2 := img1.Bounds(), img2.Bounds()
	fmt.Printf("PNG 1: %dx%d, %T\n", b1.Dx(), b1.Dy(), img1)
	fmt.Printf("PNG 2: %dx%d, %T\n", b2.Dx(), b2.Dy(), img2)

	width := b1.Dx()
	if b2.Dx() < width {
		width = b2.Dx()
	}
	height := b1.Dy()
	if b2.Dy() < height {
		height = b2.Dy()
	}

	type diff struct {
		x, y   int
		v1, v2 uint32
	}
	var diffs []diff
	diffCount := 0
	nonzero1, nonzero2 := 0, 0

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v1, _, _, _ := img1.At(b1.Min.X+x, b1.Min.Y+y).RGBA()
			v2, _, _, _ := img2.At(b2.Min.X+x, b2.Min.Y+y).RGBA()
			v1 >>= 8
			v2 >>= 8

			if v1 != 0 {
				nonzero1++
			}
			if v2 != 0 {
				nonzero2++
			}
			if v1 != v2 {
				if len(diffs) < maxDiffs {
					diffs = append(diffs, diff{x, y, v1, v2})
				}
				diffCount++
			}
		}
	}

	fmt.Printf("\nTotal different pixels: %d\n", diffCount)
	fmt.Printf("First %d differences:\n", len(diffs))
	for _, d := range diffs {
		fmt.Printf("  (%d, %d): %d vs %d\n", d.x, d.y, d.v1, d.v2)
	}

	fmt.Printf("\nNon-zero pixels in first: %d\n", nonzero1)
	fmt.Printf("Non-zero pixels in second: %d\n", nonzero2)

	if width >= 32 {
		fmt.Println("\nChunk (0,0) first row, 32 pixels:")
		fmt.Print("First:  [")
		for x := 0; x < 32; x++ {
			v, _, _, _ := img1.At(b1.Min.X+x, b1.Min.Y).RGBA()
			fmt.Printf("%d ", v>>8)
		}
		fmt.Println("]")
		fmt.Print("Second: [")
		for x := 0; x < 32; x++ {
			v, _, _, _ := img2.At(b2.Min.X+x, b2.Min.Y).RGBA()
			fmt.Printf("%d ", v>>8)
		}
		fmt.Println("]")
	}

	return nil
}

func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}
