package cli

import (
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the vector collection from processed documents",
	Long: `Read processed_pdfs.json, chunk every document, embed the chunks in batches
and write them to a freshly recreated collection. Any existing collection with
the same name is dropped first.

Examples:
  supportrag index
  COLLECTION_NAME=Staging supportrag index`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPipeline()
		batch, err := p.loadProcessed()
		if err != nil {
			return err
		}
		_, err = p.index(cmd.Context(), batch)
		return err
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
