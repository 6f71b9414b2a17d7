package cli

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"
)

var (
	searchText  string
	searchLimit int
	searchJSON  bool
	searchNoMMR bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the vector collection",
	Long: `Embed a question and return the closest chunks from the collection, with
near-duplicate chunks of the same passage collapsed by MMR.

Examples:
  supportrag search -q "how do I reset my password"
  supportrag search -q "license activation" --limit 10 --json`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchText, "query", "q", "", "search query (required)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "k", 0, "number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.Flags().BoolVar(&searchNoMMR, "no-mmr", false, "disable MMR reranking")
	searchCmd.MarkFlagRequired("query")
}

// searchOutput is a simplified result for CLI output.
type searchOutput struct {
	Score         float64 `json:"score"`
	Filename      string  `json:"filename"`
	SourceURL     string  `json:"source_url"`
	PDFURL        string  `json:"pdf_url"`
	SectionHeader string  `json:"section_header,omitempty"`
	Text          string  `json:"text"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	p := newPipeline()
	if err := p.cfg.ValidateIndex(); err != nil {
		return err
	}

	idx, closeIndex, err := p.vectorIndex()
	if err != nil {
		return fmt.Errorf("failed to open vector index: %w", err)
	}
	defer closeIndex()

	uc, err := p.searchUseCase(idx, !searchNoMMR)
	if err != nil {
		return err
	}

	limit := p.cfg.Search.Limit
	if searchLimit > 0 {
		limit = searchLimit
	}

	hits, err := uc.Search(cmd.Context(), searchText, limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	results := make([]searchOutput, 0, len(hits))
	for _, h := range hits {
		results = append(results, searchOutput{
			Score:         h.Score,
			Filename:      h.PayloadString("filename"),
			SourceURL:     h.PayloadString("source_url"),
			PDFURL:        h.PayloadString("pdf_url"),
			SectionHeader: h.PayloadString("section_header"),
			Text:          h.Text(),
		})
	}

	if searchJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(results), searchText)
	for i, r := range results {
		title := r.Filename
		if r.SectionHeader != "" {
			title += " > " + r.SectionHeader
		}
		fmt.Printf("--- [%d] %s (score: %.2f) ---\n", i+1, title, r.Score)
		fmt.Printf("Source: %s\n", r.SourceURL)
		fmt.Println(truncateRunes(r.Text, 500))
		fmt.Println()
	}
	return nil
}

// truncateRunes shortens s to at most n runes for display, marking the cut
// with "...".
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
