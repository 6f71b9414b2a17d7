package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"supportrag/internal/adapter/assets"
	"supportrag/internal/adapter/crawler"
	"supportrag/internal/usecase"
)

var analyzeJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "Inspect one page for links and documents",
	Long: `Log in, fetch a single page and report its links, which of them are in
crawl scope, the documents the fetch stage would download, and other
document-related elements (labelled buttons, iframes, viewer containers,
inline scripts). Useful when a page's documents are not being picked up.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "output as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	p := newPipeline()
	if err := p.ensureLogin(cmd.Context()); err != nil {
		return err
	}
	s, err := p.httpSession()
	if err != nil {
		return err
	}
	rule := crawler.NewScopeRule(p.cfg.Site.Domain, p.cfg.Site.Locale, p.cfg.Crawl.Excludes)
	uc := usecase.NewAnalyzeUseCase(s, rule, p.cfg.NormalizedExtension(), p.cfg.Crawl.Timeout, GetLogger())

	result, err := uc.Analyze(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	if analyzeJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Page: %s\n", result.URL)
	fmt.Printf("Links: %d (%d in scope)\n", len(result.Links), len(result.InScope))
	fmt.Printf("\nDocuments (%d):\n", len(result.Assets))
	for _, a := range result.Assets {
		fmt.Printf("  %s\n", a)
	}
	printElements("Document-related elements", result.Inspection.Elements)
	printElements("Iframes", result.Inspection.Iframes)
	printElements("Viewer containers", result.Inspection.Containers)
	if len(result.Inspection.Scripts) > 0 {
		fmt.Printf("\nScripts (%d):\n", len(result.Inspection.Scripts))
		for _, s := range result.Inspection.Scripts {
			fmt.Printf("  %s\n", s)
		}
	}
	return nil
}

func printElements(title string, elems []assets.Element) {
	if len(elems) == 0 {
		return
	}
	fmt.Printf("\n%s (%d):\n", title, len(elems))
	for _, e := range elems {
		fmt.Printf("  <%s> %q id=%q class=%q link=%q\n", e.Tag, e.Text, e.ID, e.Classes, e.Link)
	}
}
