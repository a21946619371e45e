package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"StockDash/internal/model"
)

const stampLayout = "2006-01-02 15:04"

// FormatReport formats a new problem report for operators.
func FormatReport(r *model.ProblemReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🐞 <b>New problem report</b> | %s\n\n", r.CreatedAt.Format(stampLayout)))
	b.WriteString(fmt.Sprintf("Category: %s\n", html.EscapeString(r.Category)))
	if r.SubmittedBy != "" {
		b.WriteString(fmt.Sprintf("From: %s\n", html.EscapeString(r.SubmittedBy)))
	}
	if r.Attachment != nil {
		b.WriteString(fmt.Sprintf("Attachment: %s\n", html.EscapeString(*r.Attachment)))
	}
	b.WriteString("\n")
	b.WriteString(html.EscapeString(r.Description))
	return b.String()
}

// FormatSupport formats a new help request for operators.
func FormatSupport(r *model.SupportRequest) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🆘 <b>New support request</b> | %s\n\n", r.CreatedAt.Format(stampLayout)))
	b.WriteString(fmt.Sprintf("From: %s &lt;%s&gt;\n", html.EscapeString(r.Name), html.EscapeString(r.Email)))
	b.WriteString(fmt.Sprintf("Subject: %s\n\n", html.EscapeString(r.Subject)))
	b.WriteString(html.EscapeString(r.Message))
	return b.String()
}

// FormatReportList formats the most recent problem reports, newest first.
func FormatReportList(reports []model.ProblemReport) string {
	if len(reports) == 0 {
		return "No problem reports yet."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🐞 <b>Latest %d problem reports</b>\n\n", len(reports)))
	for _, r := range reports {
		b.WriteString(fmt.Sprintf("• %s [%s] %s\n",
			r.CreatedAt.Format(stampLayout), html.EscapeString(r.Category), html.EscapeString(clip(r.Description, 80))))
	}
	return b.String()
}

// FormatSupportList formats the most recent support requests, newest first.
func FormatSupportList(reqs []model.SupportRequest) string {
	if len(reqs) == 0 {
		return "No support requests yet."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🆘 <b>Latest %d support requests</b>\n\n", len(reqs)))
	for _, r := range reqs {
		b.WriteString(fmt.Sprintf("• %s %s: %s\n",
			r.CreatedAt.Format(stampLayout), html.EscapeString(r.Email), html.EscapeString(clip(r.Subject, 80))))
	}
	return b.String()
}

// Status is the operator view of a running dashboard.
type Status struct {
	StartedAt    time.Time
	Provider     string
	LiveViewers  int
	Sessions     int
	ForecastRuns int
	FetchErrors  int
}

// FormatStatus formats the /status reply.
func FormatStatus(s Status) string {
	var b strings.Builder
	b.WriteString("📦 <b>StockDash status</b>\n\n")
	b.WriteString(fmt.Sprintf("Up since: %s (%s)\n", s.StartedAt.Format(stampLayout), time.Since(s.StartedAt).Truncate(time.Second)))
	b.WriteString(fmt.Sprintf("Data source: %s\n", s.Provider))
	b.WriteString(fmt.Sprintf("Live viewers: %d\n", s.LiveViewers))
	b.WriteString(fmt.Sprintf("Signed-in sessions: %d\n", s.Sessions))
	b.WriteString(fmt.Sprintf("Forecast runs (24h): %d\n", s.ForecastRuns))
	b.WriteString(fmt.Sprintf("Fetch failures (24h): %d\n", s.FetchErrors))
	return b.String()
}

// FormatHelp lists the commands the bot answers.
func FormatHelp() string {
	return "Available commands:\n• /reports\n• /support\n• /status"
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
