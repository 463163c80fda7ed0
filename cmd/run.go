package cmd

import (
	"fmt"

	"github.com/KaramelBytes/edascope/internal/chart"
	cfgpkg "github.com/KaramelBytes/edascope/internal/config"
	"github.com/KaramelBytes/edascope/internal/session"
	"github.com/spf13/cobra"
)

var (
	runColumn  string
	runXLSX    string
	runTitle   string
	runPreview int
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Load, describe and clean a dataset, then chart one column",
	Long: `Run the full exploration: load the dataset (default from config), write the
summary statistics report, show the table after dropping missing values and
after dropping duplicates, then chart the column given by --column.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, g, err := datasetOptions(cmd, args)
		if err != nil {
			return err
		}
		if runTitle != "" {
			opt.Title = runTitle
		}
		preview := g.PreviewRows
		if cmd.Flags().Changed("preview") {
			preview = runPreview
		}
		out := cmd.OutOrStdout()
		p := session.NewTextPresenter(out, preview)

		sess, err := session.Start(cmd.Context(), opt, p)
		if err != nil {
			return err
		}
		charts, err := sess.Explore(cmd.Context(), runColumn, p)
		if err != nil {
			return err
		}

		xlsx := g.XLSXPath
		if cmd.Flags().Changed("xlsx") {
			xlsx = runXLSX
		}
		if xlsx == "" || len(charts) == 0 {
			return nil
		}
		if err := writeWorkbook(xlsx, charts); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Wrote charts to %s\n", xlsx)
		return nil
	},
}

func writeWorkbook(path string, charts []chart.Chart) error {
	wb, err := chart.NewWorkbookRenderer()
	if err != nil {
		return err
	}
	defer wb.Close()
	for _, c := range charts {
		if err := wb.Render(c); err != nil {
			return err
		}
	}
	return wb.Save(path)
}

// datasetFlags maps dataset flags to the config keys they override.
var datasetFlags = map[string]string{
	"encoding":  "encoding",
	"delimiter": "delimiter",
	"sheet":     "sheet",
	"report":    "report_path",
}

func addDatasetFlags(cmd *cobra.Command, withReport bool) {
	cmd.Flags().String("encoding", "", "text encoding of the dataset, e.g. latin1, utf-8, windows-1252 (overrides config)")
	cmd.Flags().String("delimiter", "", "field delimiter: ',' | ';' | '|' | 'tab' (default by extension)")
	cmd.Flags().String("sheet", "", "XLSX: sheet name (default first sheet)")
	cmd.Flags().StringSlice("require", nil, "columns that must be present (repeatable)")
	if withReport {
		cmd.Flags().String("report", "", "summary statistics report path (overrides config)")
		cmd.Flags().Bool("no-report", false, "do not write the summary statistics report")
	}
}

// datasetOptions applies the dataset flags over the loaded config and
// returns the session options plus the effective config.
func datasetOptions(cmd *cobra.Command, args []string) (session.Options, *cfgpkg.Global, error) {
	c, err := loadedConfig()
	if err != nil {
		return session.Options{}, nil, err
	}
	g := *c
	f := cmd.Flags()
	for flag, key := range datasetFlags {
		if f.Lookup(flag) == nil || !f.Changed(flag) {
			continue
		}
		v, err := f.GetString(flag)
		if err != nil {
			return session.Options{}, nil, err
		}
		if err := g.Set(key, v); err != nil {
			return session.Options{}, nil, fmt.Errorf("--%s: %w", flag, err)
		}
	}
	if f.Changed("require") {
		req, err := f.GetStringSlice("require")
		if err != nil {
			return session.Options{}, nil, err
		}
		g.RequiredColumns = req
	}
	if len(args) == 1 {
		g.DatasetPath = args[0]
	}
	load, err := g.LoadOptions()
	if err != nil {
		return session.Options{}, nil, err
	}
	opt := session.Options{Path: g.DatasetPath, Load: load, ReportPath: g.ReportPath, Title: g.Title}
	if skip, err := f.GetBool("no-report"); err == nil && skip {
		opt.ReportPath = ""
	}
	return opt, &g, nil
}

func init() {
	rootCmd.AddCommand(runCmd)
	addDatasetFlags(runCmd, true)
	runCmd.Flags().StringVarP(&runColumn, "column", "c", "", "column to chart (the X-axis column)")
	runCmd.Flags().StringVar(&runXLSX, "xlsx", "", "also write the charts to an XLSX workbook at this path")
	runCmd.Flags().StringVar(&runTitle, "title", "", "heading shown above the tables (default derived from the file name)")
	runCmd.Flags().IntVar(&runPreview, "preview", 10, "rows of each table stage to print (0 = shape only)")
}
