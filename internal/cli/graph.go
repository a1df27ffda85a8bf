package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nginly/nginx-analyze-ci/pkg/config"
	"github.com/nginly/nginx-analyze-ci/pkg/depgraph"
	"github.com/nginly/nginx-analyze-ci/pkg/pipeline"
)

// graphCommand creates the graph command, which exports the include graph.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		output string
		svg    bool
	)

	cmd := &cobra.Command{
		Use:   "graph [directory]",
		Short: "Export the include graph as Graphviz DOT or SVG",
		Long: `Export the include graph of a directory.

Each configuration tree is drawn as a cluster; root files have a bold
outline. The default output is DOT; --svg renders it with Graphviz.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dir := dirArg(args)
			cfg, err := c.loadConfig(dir)
			if err != nil {
				return err
			}

			runner, err := c.newRunner(ctx, config.Config{}, "")
			if err != nil {
				return err
			}
			defer runner.Close()

			d, err := runner.Discover(ctx, pipeline.Options{
				Dir:     dir,
				Pattern: cfg.Pattern,
				Exclude: cfg.Exclude,
				Workers: cfg.Workers,
				Logger:  loggerFromContext(ctx),
			})
			if err != nil {
				return err
			}

			data := []byte(depgraph.ToDOT(d.Graph, d.Trees, d.Dir))
			if svg {
				spinner := newSpinnerWithContext(ctx, "Rendering SVG...")
				spinner.Start()
				data, err = depgraph.RenderSVG(ctx, string(data))
				if err != nil {
					spinner.StopWithError("Rendering failed")
					return fmt.Errorf("render svg: %w", err)
				}
				spinner.Stop()
			}

			if output == "" {
				_, err := resultOut.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Include graph written (%d file(s), %d tree(s))", len(d.Files), len(d.Trees))
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&svg, "svg", false, "render SVG instead of DOT")

	return cmd
}
