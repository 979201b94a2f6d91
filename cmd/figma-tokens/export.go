package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	figmatokens "github.com/hellenic-development/figma-tokens"
	"github.com/hellenic-development/figma-tokens/pkg/host"
	"github.com/hellenic-development/figma-tokens/pkg/inventory"
	"github.com/hellenic-development/figma-tokens/pkg/source"
	"github.com/hellenic-development/figma-tokens/pkg/tokens"
)

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("collections", nil, "Comma-separated collection IDs to export (see the collections command)")
	cmd.Flags().StringSlice("formats", []string{"css"}, "Comma-separated formats: css, swift, android, flutter, w3c, tailwind")
	cmd.Flags().StringSlice("types", tokens.Types, "Comma-separated token types: color, string, boolean, number")
	cmd.Flags().StringP("out-dir", "o", ".", "Output directory for the generated files")
	cmd.Flags().Int64("max-output-bytes", figmatokens.DefaultMaxOutputBytes, "Abort when the combined output is larger than this")
}

func exportCmd() *cobra.Command {
	var saveSnapshot string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export variables as token files",
		RunE: func(cmd *cobra.Command, args []string) error {
			banner()

			var (
				src source.Source
				err error
			)
			if saveSnapshot != "" {
				src, err = snapshotSource(cmd.Context(), saveSnapshot)
			} else {
				src, _, err = openSource()
			}
			if err != nil {
				return err
			}

			_, err = exportOnce(cmd.Context(), src)
			return err
		},
	}

	addSelectionFlags(cmd)
	cmd.Flags().StringVar(&saveSnapshot, "save-snapshot", "", "Also save the API response to this JSON or YAML file")
	return cmd
}

// snapshotSource fetches the variables once, saves the response to path and
// exports from the saved copy.
func snapshotSource(ctx context.Context, path string) (source.Source, error) {
	if cfg.Figma.Snapshot != "" {
		return nil, errors.New("--save-snapshot needs the Figma API as source, not --snapshot")
	}
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	f, err := source.NewFigma(client, cfg.Figma.File)
	if err != nil {
		return nil, err
	}

	resp, err := client.GetLocalVariables(ctx, f.FileKey)
	if err != nil {
		return nil, errors.Wrap(err, "fetch variables")
	}
	if err := source.WriteSnapshot(path, resp); err != nil {
		return nil, err
	}
	pterm.Info.Printf("Saved snapshot to %s\n", path)

	data := source.FromMeta(resp.Meta)
	return source.NewStatic(data.Collections, data.Variables), nil
}

// exportOnce runs one export with a progress bar and writes the files to
// the output directory.
func exportOnce(ctx context.Context, src source.Source) (*figmatokens.Result, error) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	cyan := color.New(color.FgCyan)

	progress := newProgressChannel()
	res, err := figmatokens.Export(ctx, src, progress, request(), runOptions())
	progress.stop()
	if err != nil {
		return res, err
	}

	stats := res.Run.Stats
	cyan.Println("\n📊 Export Summary:")
	fmt.Printf("  • Variables: %d read, %d selected\n", stats.Variables, stats.Selected)
	fmt.Printf("  • Tokens: %d\n", stats.Tokens)
	if stats.Unresolved > 0 {
		fmt.Printf("  • Unresolved aliases: %d\n", stats.Unresolved)
	}
	if len(res.Run.Collisions) > 0 {
		fmt.Printf("  • Renamed on collision: %d\n", len(res.Run.Collisions))
	}
	for _, rec := range res.Run.Errors {
		red.Printf("  ✗ %s: %s\n", rec.Operation, rec.Message)
	}

	outDir := cfg.Export.OutDir
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return res, errors.Wrapf(err, "create %s", outDir)
	}
	for _, f := range res.Files {
		path := filepath.Join(outDir, f.Filename)
		green.Printf("\n💾 Writing %s (%s)... ", path, humanize.IBytes(uint64(len(f.Content))))
		if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil {
			red.Printf("✗\n")
			return res, errors.Wrapf(err, "write %s", path)
		}
		green.Println("✓")
	}

	for _, n := range progress.notices() {
		if n.Error {
			pterm.Warning.Println(n.Message)
		} else {
			pterm.Info.Println(n.Message)
		}
	}
	green.Printf("\n✨ Successfully exported %d file(s) to %s\n\n", len(res.Files), outDir)
	return res, nil
}

// progressChannel shows export-progress on a progress bar and keeps
// notifications for after the bar is gone.
type progressChannel struct {
	mu      sync.Mutex
	bar     *pterm.ProgressbarPrinter
	percent int
	notes   []host.Notify
}

func newProgressChannel() *progressChannel {
	bar, err := pterm.DefaultProgressbar.WithTotal(100).WithTitle("Exporting").Start()
	if err != nil {
		bar = nil
	}
	return &progressChannel{bar: bar}
}

func (p *progressChannel) Send(ctx context.Context, m host.Outbound) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch m := m.(type) {
	case host.ExportProgress:
		if p.bar != nil && m.Percent > p.percent {
			p.bar.Add(m.Percent - p.percent)
		}
		p.percent = m.Percent
	case host.Notify:
		p.notes = append(p.notes, m)
	}
	return nil
}

func (p *progressChannel) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_, _ = p.bar.Stop()
		p.bar = nil
	}
}

func (p *progressChannel) notices() []host.Notify {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]host.Notify(nil), p.notes...)
}

func collectionsCmd() *cobra.Command {
	var markdown bool

	cmd := &cobra.Command{
		Use:   "collections",
		Short: "List the variable collections available for export",
		RunE: func(cmd *cobra.Command, args []string) error {
			src, title, err := openSource()
			if err != nil {
				return err
			}

			cols, err := figmatokens.ListCollections(cmd.Context(), src)
			if err != nil {
				return err
			}

			if markdown {
				fmt.Print(inventory.Markdown(cols, title))
				return nil
			}

			banner()
			data := pterm.TableData{{"ID", "Name", "Default mode", "Variables", "Types"}}
			for _, c := range cols {
				var types []string
				for _, t := range tokens.Types {
					if n := c.TypeCounts[t]; n > 0 {
						types = append(types, fmt.Sprintf("%s %d", t, n))
					}
				}
				data = append(data, []string{c.ID, c.Name, c.DefaultMode, fmt.Sprint(c.VariableCount), strings.Join(types, ", ")})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		},
	}

	cmd.Flags().BoolVar(&markdown, "markdown", false, "Print a markdown report instead of a table")
	return cmd
}
