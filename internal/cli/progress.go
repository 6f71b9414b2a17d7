package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
)

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", description)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}

// newSpinner is used when the total is unknown, as with crawling.
func newSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", description)),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
	)
}

// etaDescription appends the remaining time estimate to a stage description.
func etaDescription(description string, start time.Time, processed, total int) string {
	if processed <= 0 {
		return fmt.Sprintf("[cyan]%s[reset]", description)
	}
	elapsed := time.Since(start)
	rate := float64(processed) / elapsed.Seconds()
	if rate <= 0 {
		return fmt.Sprintf("[cyan]%s[reset]", description)
	}
	eta := time.Duration(float64(total-processed)/rate) * time.Second
	return fmt.Sprintf("[cyan]%s[reset] ETA: %s", description, formatDuration(eta))
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
