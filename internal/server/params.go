package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"StockDash/internal/collector"
)

const dateLayout = "2006-01-02"

// seriesQuery is the symbol and date window shared by the analysis page and the API.
type seriesQuery struct {
	Symbol  string
	Start   time.Time
	End     time.Time
	Horizon int
}

// parseSeriesQuery reads symbol, start, end and horizon with the configured
// defaults: the default symbol, the last DefaultDays days ending today.
func (s *Server) parseSeriesQuery(c *gin.Context) (seriesQuery, error) {
	q := seriesQuery{
		Symbol:  collector.NormalizeSymbol(c.DefaultQuery("symbol", s.opts.DefaultSymbol)),
		Horizon: s.opts.DefaultHorizon,
	}
	if q.Symbol == "" {
		return q, badParam("symbol", "this field is required")
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	q.End = today
	if v := strings.TrimSpace(c.Query("end")); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return q, badParam("end", "use YYYY-MM-DD")
		}
		q.End = t
	}
	q.Start = q.End.AddDate(0, 0, -s.opts.DefaultDays)
	if v := strings.TrimSpace(c.Query("start")); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return q, badParam("start", "use YYYY-MM-DD")
		}
		q.Start = t
	}
	if !q.Start.Before(q.End) {
		return q, badParam("start", "start date must be before end date")
	}

	if v := strings.TrimSpace(c.Query("horizon")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, badParam("horizon", "must be a whole number of days")
		}
		q.Horizon = n
	}
	return q, nil
}

// fetchEnd makes the end date inclusive for the provider's half-open window.
func (q seriesQuery) fetchEnd() time.Time { return q.End.AddDate(0, 0, 1) }
