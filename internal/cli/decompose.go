package cli

import (
	"github.com/spf13/cobra"
)

var decomposeWorkers int

var decomposeCmd = &cobra.Command{
	Use:   "decompose",
	Short: "Split downloaded documents into text and sections",
	Long: `Read pdf_sources.json, convert every downloaded document that still exists
on disk, and write the text blocks and sections to processed_pdfs.json.

Examples:
  supportrag decompose
  supportrag decompose --workers 4`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPipeline()
		if decomposeWorkers > 0 {
			p.cfg.Decompose.Workers = decomposeWorkers
		}
		mapping, err := p.loadMapping()
		if err != nil {
			return err
		}
		_, err = p.decompose(cmd.Context(), mapping)
		return err
	},
}

func init() {
	rootCmd.AddCommand(decomposeCmd)
	decomposeCmd.Flags().IntVarP(&decomposeWorkers, "workers", "w", 0, "parallel conversions (default 75% of CPUs)")
}
