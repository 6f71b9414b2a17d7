package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every stage: crawl, fetch, decompose, index",
	Long: `Run the whole pipeline in one process. The login session is shared by the
crawl and fetch stages, and every stage still writes its artifact so a failed
run can be resumed with the individual stage commands.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p := newPipeline()
		start := time.Now()

		pages, err := p.crawl(ctx)
		if err != nil {
			return err
		}
		mapping, err := p.fetch(ctx, pages)
		if err != nil {
			return err
		}
		batch, err := p.decompose(ctx, mapping)
		if err != nil {
			return err
		}
		if _, err := p.index(ctx, batch); err != nil {
			return err
		}

		fmt.Printf("\nPipeline finished in %s\n", formatDuration(time.Since(start)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
