package cli

import (
	"encoding/json"
	"fmt"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nginly/nginx-analyze-ci/pkg/batch"
	"github.com/nginly/nginx-analyze-ci/pkg/config"
	"github.com/nginly/nginx-analyze-ci/pkg/pipeline"
)

// treeView is a configuration tree with paths relative to the analyzed
// directory, as printed by the trees command.
type treeView struct {
	RootFiles []string `json:"rootFiles"`
	AllFiles  []string `json:"allFiles"`
}

// isRoot reports whether file is one of the tree's roots.
func (t treeView) isRoot(file string) bool {
	return slices.Contains(t.RootFiles, file)
}

// treesCommand creates the trees command, which shows how files group
// into configuration trees without contacting the analyzer.
func (c *CLI) treesCommand() *cobra.Command {
	var (
		format      string
		pattern     string
		exclude     []string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "trees [directory]",
		Short: "List the configuration trees found in a directory",
		Long: `List the independent configuration trees found in a directory.

Files connected by include directives, in either direction, form one tree.
Root files (included by no other file) are marked with ●.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := dirArg(args)
			cfg, err := c.loadConfig(dir)
			if err != nil {
				return err
			}
			if pattern != "" {
				cfg.Pattern = pattern
			}

			runner, err := c.newRunner(cmd.Context(), config.Config{}, "")
			if err != nil {
				return err
			}
			defer runner.Close()

			d, err := runner.Discover(cmd.Context(), pipeline.Options{
				Dir:     dir,
				Pattern: cfg.Pattern,
				Exclude: append(cfg.Exclude, exclude...),
				Workers: cfg.Workers,
				Logger:  loggerFromContext(cmd.Context()),
			})
			if err != nil {
				return err
			}
			views := treeViews(d)

			switch {
			case interactive:
				_, err := tea.NewProgram(NewTreeListModel(views)).Run()
				return err
			case format == config.FormatJSON:
				data, err := json.MarshalIndent(views, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(resultOut, string(data))
				return nil
			case format == config.FormatText:
				printTrees(views)
				return nil
			}
			return fmt.Errorf("invalid format: %q (must be one of: text, json)", format)
		},
	}

	cmd.Flags().StringVar(&format, "format", config.FormatText, "output format: text, json")
	cmd.Flags().StringVar(&pattern, "pattern", "", "custom search pattern for nginx files")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "additional exclude pattern (repeatable)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse trees interactively")

	return cmd
}

func treeViews(d *pipeline.Discovery) []treeView {
	views := make([]treeView, 0, len(d.Trees))
	for _, t := range d.Trees {
		views = append(views, treeView{
			RootFiles: relativeAll(d.Dir, t.RootFiles),
			AllFiles:  relativeAll(d.Dir, t.AllFiles),
		})
	}
	return views
}

func relativeAll(base string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = batch.RelativePath(base, p)
	}
	return out
}

func printTrees(views []treeView) {
	if len(views) == 0 {
		printWarning(msgNoConfigs)
		return
	}
	for i, t := range views {
		fmt.Fprintln(resultOut, StyleTitle.Render(fmt.Sprintf("Tree %d", i+1))+" "+
			StyleDim.Render(fmt.Sprintf("(%d file(s))", len(t.AllFiles))))
		for _, f := range t.AllFiles {
			icon := StyleDim.Render(iconMember)
			if t.isRoot(f) {
				icon = StyleHighlight.Render(iconRoot)
			}
			fmt.Fprintln(resultOut, "  "+icon+" "+StyleValue.Render(f))
		}
	}
}
