package cli

import (
	"github.com/spf13/cobra"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Collect the in-scope pages of the documentation site",
	Long: `Log in and crawl the documentation site breadth-first from site.seed_url,
following only links under site.domain in the configured locale. The visited
URLs are written to crawled_urls.json.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := newPipeline().crawl(cmd.Context())
		return err
	},
}

func init() {
	rootCmd.AddCommand(crawlCmd)
}
