package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Paint-a-Farm/grleconvert/internal/convert"
	"github.com/Paint-a-Farm/grleconvert/pkg/layout"
	"github.com/Paint-a-Farm/grleconvert/pkg/logging"
	"github.com/Paint-a-Farm/grleconvert/pkg/runid"
	"github.com/spf13/cobra"
)

// NewRoot builds the grleconvert command tree: the root command
// performs dispatch-by-extension conversion directly, matching the
// spec's flat `tool <input> [output]` invocation; version/compare are
// ordinary subcommands.
func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grleconvert <input> [output]",
		Short: "convert between RLE-LAYER/PACKED-DENSITY files and PNG",
		Long:  "grleconvert converts .grle and .gdm map raster files to PNG and back, resolving channel semantics from a map's scene descriptor.",
		Args:  cobra.RangeArgs(1, 2),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFile, _ := cmd.Flags().GetString("log-file")

			var level slog.Level
			if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
				level = slog.LevelInfo
			}

			if logFile != "" {
				slog.SetDefault(logging.RotatingLogger(logFile, 100, 5, true, level))
			} else {
				slog.SetDefault(logging.Logger(os.Stdout, false, level))
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(ctx, cmd, args)
		},
	}

	cmd.AddCommand(
		NewVersionCmd(gitsha),
		NewCompareCmd(),
	)

	pf := cmd.PersistentFlags()
	pf.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-file", "", "write rotating JSON logs here instead of stdout text")

	flags := cmd.Flags()
	flags.String("i3d", "", "path to the map's scene descriptor (.i3d)")
	flags.Int("channels", 0, "manual channel count, used when no scene descriptor resolves one")
	flags.Int("compress-at", 0, "manual inner range boundary (channel index), used when no scene descriptor resolves one")

	return cmd
}

func runConvert(ctx context.Context, cmd *cobra.Command, args []string) error {
	srcPath := args[0]
	ext := strings.ToLower(filepath.Ext(srcPath))

	i3d, _ := cmd.Flags().GetString("i3d")
	channels, _ := cmd.Flags().GetInt("channels")
	compressAt, _ := cmd.Flags().GetInt("compress-at")
	opts := convert.Options{DescriptorPath: i3d, NumChannels: channels, CompressAt: compressAt}

	in, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", srcPath, err)
	}
	defer in.Close()

	switch ext {
	case ".grle", ".gdm":
		dstPath := outputPath(args, srcPath, ".png")
		ctx = logging.AppendCtx(ctx, slog.String("run_id", runid.New(srcPath, dstPath, time.Now().String())))

		out, err := os.Create(dstPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", dstPath, err)
		}
		defer out.Close()

		if err := convert.Decode(in, srcPath, out); err != nil {
			out.Close()
			os.Remove(dstPath)
			return err
		}
		slog.InfoContext(ctx, "decoded", "src", srcPath, "dst", dstPath)

	case ".png":
		resolvedExt, resolveErr := resolveForEncode(srcPath, opts)
		if resolveErr != nil {
			return resolveErr
		}
		dstPath := outputPath(args, srcPath, resolvedExt)
		ctx = logging.AppendCtx(ctx, slog.String("run_id", runid.New(srcPath, dstPath, time.Now().String())))

		out, err := os.Create(dstPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", dstPath, err)
		}
		defer out.Close()

		if err := convert.Encode(in, dstPath, out, opts); err != nil {
			out.Close()
			os.Remove(dstPath)
			return err
		}
		slog.InfoContext(ctx, "encoded", "src", srcPath, "dst", dstPath)

	default:
		return fmt.Errorf("unrecognized input extension %q", ext)
	}
	return nil
}

// resolveForEncode determines which binary extension a .png input
// should encode to: the scene descriptor's resolved format if one
// matches, falling back to RLE-LAYER per spec.md §4.4 when nothing
// else is known.
func resolveForEncode(srcPath string, opts convert.Options) (string, error) {
	fallback := &layout.Layout{Format: layout.FormatRLELayer, NumChannels: 1}
	if opts.NumChannels > 0 {
		var split []int
		if opts.CompressAt > 0 {
			split = []int{opts.CompressAt}
		}
		format := layout.FormatRLELayer
		if opts.NumChannels > 8 || opts.CompressAt > 0 {
			format = layout.FormatPackedDensity
		}
		fallback = &layout.Layout{Format: format, NumChannels: opts.NumChannels, RangeSplit: split}
	}

	stem := strings.TrimSuffix(srcPath, filepath.Ext(srcPath))
	for _, candidateExt := range []string{".grle", ".gdm"} {
		l, err := layout.Resolve(opts.DescriptorPath, stem+candidateExt, nil)
		if err == nil {
			if l.Format == layout.FormatPackedDensity {
				return ".gdm", nil
			}
			return ".grle", nil
		}
	}

	if fallback.Format == layout.FormatPackedDensity {
		return ".gdm", nil
	}
	return ".grle", nil
}

func outputPath(args []string, srcPath string, resolvedExt string) string {
	if len(args) > 1 {
		return args[1]
	}
	return convert.DefaultOutputPath(srcPath, resolvedExt)
}
