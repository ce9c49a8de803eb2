package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kailas-cloud/ragdex/internal/loader"
	ingestuc "github.com/kailas-cloud/ragdex/internal/usecase/ingest"
)

type ingestFlags struct {
	collection   string
	chunkSize    int
	chunkOverlap int
	replace      bool
	noProgress   bool
}

func newIngestCommand(rt *session) *cobra.Command {
	f := &ingestFlags{}
	cmd := &cobra.Command{
		Use:   "ingest <source|glob>...",
		Short: "Load, chunk, embed and store documents",
		Long: `Ingests each source into a collection. Sources may be doublestar globs
such as "docs/**/*.pdf"; glob matches with unsupported extensions are skipped.
With --replace the collection is dropped before the first successfully loaded source is written.
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, rt, f, args)
		},
	}
	cmd.Flags().StringVarP(&f.collection, "collection", "C", "", "target collection (required)")
	cmd.Flags().IntVar(&f.chunkSize, "chunk-size", 0, "chunk size in characters (default from config)")
	cmd.Flags().IntVar(&f.chunkOverlap, "chunk-overlap", 0, "characters shared by consecutive chunks (default from config)")
	cmd.Flags().BoolVar(&f.replace, "replace", false, "drop the collection before writing")
	cmd.Flags().BoolVar(&f.noProgress, "no-progress", false, "disable the progress bar")
	_ = cmd.MarkFlagRequired("collection")
	return cmd
}

func runIngest(cmd *cobra.Command, rt *session, f *ingestFlags, args []string) error {
	sources, err := expandSources(args)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return errors.New("no supported documents matched")
	}

	a, err := rt.open(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	showProgress := !f.noProgress && term.IsTerminal(int(os.Stderr.Fd()))
	var failed int
	pendingReplace := f.replace
	for _, source := range sources {
		req := ingestuc.Request{
			Source:       source,
			Collection:   f.collection,
			ChunkSize:    f.chunkSize,
			ChunkOverlap: f.chunkOverlap,
			Replace:      pendingReplace,
		}
		var bar *progressbar.ProgressBar
		if showProgress {
			req.Progress = func(done, total int) {
				if bar == nil {
					bar = newProgressBar(total, source)
				}
				_ = bar.Set(done)
			}
		}

		report, err := a.Ingest.Ingest(cmd.Context(), req)
		if bar != nil {
			_ = bar.Finish()
		}
		if err != nil {
			failed++
			cmd.PrintErrf("FAIL %s: %v\n", source, err)
			continue
		}
		pendingReplace = false
		cmd.Printf("OK   %s: %d pages, %d chunks (dim %d) in %s\n",
			report.Source, report.Pages, report.Chunks, report.Dimension, report.Duration.Round(time.Millisecond))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed", failed, len(sources))
	}
	return nil
}

// expandSources resolves globs. Literal paths are kept as given so the loader
// reports missing or unsupported files.
func expandSources(args []string) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}

	for _, arg := range args {
		if !hasMeta(arg) {
			add(arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		for _, m := range matches {
			if loader.Supported(m) {
				add(m)
			}
		}
	}
	return out, nil
}

func hasMeta(pattern string) bool {
	for _, c := range pattern {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

func newProgressBar(total int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("embedding "+desc),
		progressbar.OptionSetWidth(32),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
