package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/voicenote/internal/domain"
)

// FormatSummary renders a result for display. Missing fields print empty; no action items prints "None".
func FormatSummary(res domain.SummaryResult) string {
	items := "None"
	if len(res.ActionItems) > 0 {
		lines := make([]string, 0, len(res.ActionItems))
		for _, it := range res.ActionItems {
			lines = append(lines, "• "+it)
		}
		items = strings.Join(lines, "\n")
	}

	return fmt.Sprintf("Title: %s\n\nSummary:\n%s\n\nAction Items:\n%s", deref(res.Title), deref(res.Summary), items)
}

// FormatElapsed renders d as mm:ss; minutes keep growing past an hour.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
