package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/htmlmin/internal/logger"
	"github.com/jmylchreest/htmlmin/internal/output"
	"github.com/jmylchreest/htmlmin/pkg/assets"
	"github.com/jmylchreest/htmlmin/pkg/htmlmin"
)

func runMinify(cmd *cobra.Command, args []string) error {
	// Initialize logger based on flags
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts, err := optionsFromConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if err := withCollaborators(opts, viper.GetViper()); err != nil {
		return err
	}
	if logger.Enabled(slog.LevelDebug) {
		logger.Debug("resolved options", "options", fmt.Sprintf("%+v", *opts))
	}

	maxInput, err := parseSize(viper.GetString("max_input_size"))
	if err != nil {
		return fmt.Errorf("invalid max-input-size: %w", err)
	}

	inputDir, _ := cmd.Flags().GetString("input-dir")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	outPath, _ := cmd.Flags().GetString("output")
	watch, _ := cmd.Flags().GetBool("watch")
	if inputDir != "" && outputDir == "" {
		return fmt.Errorf("--input-dir requires --output-dir")
	}
	if inputDir != "" && len(args) > 0 {
		return fmt.Errorf("cannot combine --input-dir with file arguments")
	}
	if watch && inputDir == "" {
		return fmt.Errorf("--watch requires --input-dir")
	}

	// Setup report
	var report output.Writer
	if reportPath, _ := cmd.Flags().GetString("report"); reportPath != "" {
		formatStr, _ := cmd.Flags().GetString("report-format")
		format, err := output.ParseFormat(formatStr)
		if err != nil {
			return err
		}
		f, err := os.Create(reportPath) //#nosec G304 -- CLI tool writes to user-specified report file
		if err != nil {
			logger.Error("failed to create report file", "path", reportPath, "error", err)
			return err
		}
		defer func() { _ = f.Close() }()
		report, err = output.NewWriter(f, format)
		if err != nil {
			return err
		}
		defer func() {
			if err := report.Close(); err != nil {
				logger.Error("failed to write report", "path", reportPath, "error", err)
			}
		}()
	}

	lintEnabled, _ := cmd.Flags().GetBool("lint")
	stats, _ := cmd.Flags().GetBool("stats")
	p, err := newProcessor(opts, processorConfig{
		Lint:     lintEnabled,
		Stats:    stats,
		MaxInput: maxInput,
		Report:   report,
		ErrOut:   cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer p.summary()

	if inputDir != "" {
		fileExt, _ := cmd.Flags().GetString("file-ext")
		exts := parseExtensions(fileExt)
		if err := minifyDir(p, inputDir, outputDir, exts); err != nil && !watch {
			return err
		}
		if watch {
			return watchDir(ctx, p, inputDir, outputDir, exts)
		}
		return nil
	}

	// Setup output
	var out io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath) //#nosec G304 -- CLI tool writes to user-specified output file
		if err != nil {
			logger.Error("failed to create output file", "path", outPath, "error", err)
			return err
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	if len(args) == 0 {
		input, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		return p.process("<stdin>", input, out)
	}

	for _, path := range args {
		input, err := os.ReadFile(path) //#nosec G304 -- CLI tool reads user-specified input
		if err != nil {
			return err
		}
		if err := p.process(path, input, out); err != nil {
			return err
		}
	}
	return nil
}

// withCollaborators attaches the JS, CSS and URL minifiers selected by
// --minify-js, --minify-css and --minify-urls.
func withCollaborators(opts *htmlmin.Options, v *viper.Viper) error {
	if v.GetBool("minify_js") {
		js := assets.NewJS()
		opts.MinifyJS = js
		logger.Debug("minifying scripts", "minifier", js.Name())
	}
	if v.GetBool("minify_css") {
		css := assets.NewCSS()
		opts.MinifyCSS = css
		logger.Debug("minifying styles", "minifier", css.Name())
	}
	if base := v.GetString("minify_urls"); base != "" {
		urls, err := assets.NewURL(base)
		if err != nil {
			return fmt.Errorf("invalid minify-urls base: %w", err)
		}
		opts.MinifyURLs = urls
		logger.Debug("minifying urls", "minifier", urls.Name(), "base", base)
	}
	return nil
}

// parseSize reads a humanized byte size. Empty and "0" mean unlimited.
func parseSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	return humanize.ParseBytes(s)
}

// minifyDir mirrors every matching file of inputDir into outputDir. A failing
// file is logged and skipped; the error reports how many failed.
func minifyDir(p *processor, inputDir, outputDir string, exts []string) error {
	files, err := collectFiles(inputDir, outputDir, exts)
	if err != nil {
		return err
	}
	logger.Info("minifying directory", "input", inputDir, "output", outputDir, "files", len(files))

	failed := 0
	for _, src := range files {
		dst, err := mirrorPath(inputDir, outputDir, src)
		if err == nil {
			err = p.processFile(src, dst)
		}
		if err != nil {
			failed++
			logger.Error("failed to minify file", "file", src, "error", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}
