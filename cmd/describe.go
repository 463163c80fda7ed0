package cmd

import (
	"fmt"

	"github.com/KaramelBytes/edascope/internal/analysis"
	"github.com/KaramelBytes/edascope/internal/dataset"
	"github.com/KaramelBytes/edascope/internal/session"
	"github.com/KaramelBytes/edascope/internal/utils"
	"github.com/spf13/cobra"
)

var (
	descFormat string
	descOutput string
)

var describeCmd = &cobra.Command{
	Use:   "describe [file]",
	Short: "Print summary statistics of a dataset without cleaning or charting",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, _, err := datasetOptions(cmd, args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		tbl, err := dataset.Load(opt.Path, opt.Load)
		if err != nil {
			fmt.Fprintf(out, "✗ %s\n", session.FatalMessage(err))
			return err
		}
		rep := analysis.Summarize(tbl)

		var text string
		switch descFormat {
		case "text", "":
			text = rep.Text()
		case "markdown", "md":
			text = rep.Markdown()
		default:
			return fmt.Errorf("unsupported --format: %s (use text|markdown)", descFormat)
		}

		if descOutput != "" {
			if err := utils.SafeWriteFile(descOutput, []byte(text)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote summary to %s\n", descOutput)
			return nil
		}
		fmt.Fprint(out, text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	addDatasetFlags(describeCmd, false)
	describeCmd.Flags().StringVarP(&descFormat, "format", "f", "text", "output format: text | markdown")
	describeCmd.Flags().StringVarP(&descOutput, "output", "o", "", "write the summary to this path instead of stdout")
}
