package cli

import (
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the documents linked from crawled pages",
	Long: `Read crawled_urls.json, download every linked document with the configured
extension into fetch.output_dir, and record where each one came from in
pdf_sources.json.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPipeline()
		pages, err := p.loadPages()
		if err != nil {
			return err
		}
		_, err = p.fetch(cmd.Context(), pages)
		return err
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
