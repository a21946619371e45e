package server

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"StockDash/internal/auth"
	"StockDash/internal/calculator"
	"StockDash/internal/collector"
	"StockDash/internal/model"
	"StockDash/internal/recorder"
	"StockDash/internal/strategy"
	"StockDash/internal/translate"
)

// fetch loads the query window and turns the unavailable sentinel into an error.
func (s *Server) fetch(ctx context.Context, q seriesQuery) (model.Series, error) {
	series := s.deps.Source.FetchSeries(ctx, q.Symbol, q.Start, q.fetchEnd())
	if series.Unavailable {
		return series, fmt.Errorf("%w: %s", collector.ErrDataUnavailable, q.Symbol)
	}
	if series.Len() == 0 {
		return series, fmt.Errorf("%w: no bars for %s in range", collector.ErrDataUnavailable, q.Symbol)
	}
	return series, nil
}

func (s *Server) apiSeries(c *gin.Context) {
	q, err := s.parseSeriesQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	series, err := s.fetch(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, series)
}

// IndicatorsView is the visualize payload.
type IndicatorsView struct {
	Summary    model.PriceSummary `json:"summary"`
	Indicators model.IndicatorSet `json:"indicators"`
	Outlook    *model.Outlook     `json:"outlook"`
}

func buildIndicators(series model.Series) (IndicatorsView, error) {
	sum, err := calculator.Summarize(series)
	if err != nil {
		return IndicatorsView{}, err
	}
	set := calculator.Compute(series)
	return IndicatorsView{Summary: sum, Indicators: set, Outlook: strategy.Evaluate(set.Latest())}, nil
}

func (s *Server) apiIndicators(c *gin.Context) {
	q, err := s.parseSeriesQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	series, err := s.fetch(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := buildIndicators(series)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}

// runForecast fits the regression and records the run.
func (s *Server) runForecast(ctx context.Context, series model.Series, horizon int) (*model.Forecast, error) {
	start := time.Now()
	fc, err := s.deps.Forecast.Forecast(series, horizon)
	s.deps.Metrics.ObserveForecast(start, err)
	if err != nil {
		return nil, err
	}

	run := &recorder.ForecastRun{
		At:        s.now(),
		Symbol:    fc.Symbol,
		Horizon:   fc.Horizon,
		Seed:      fc.Seed,
		R2:        fc.R2,
		MAE:       fc.MAE,
		TrainSize: fc.TrainSize,
		TestSize:  fc.TestSize,
		Duration:  time.Since(start),
	}
	if last, ok := series.Last(); ok {
		run.LastClose = last.Close
	}
	if len(fc.Forecasted) > 0 {
		run.NextClose = fc.Forecasted[0]
	}
	if err := s.deps.Recorder.RecordForecast(ctx, run); err != nil {
		log.Printf("[WARN] record forecast %s: %v", run.Symbol, err)
	}
	return fc, nil
}

func (s *Server) apiForecast(c *gin.Context) {
	q, err := s.parseSeriesQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	series, err := s.fetch(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	fc, err := s.runForecast(c.Request.Context(), series, q.Horizon)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, fc)
}

func (s *Server) apiForecastHistory(c *gin.Context) {
	symbol := collector.NormalizeSymbol(c.Query("symbol"))
	runs, err := s.deps.Recorder.RecentForecasts(c.Request.Context(), symbol, 20)
	if err != nil {
		respondError(c, err)
		return
	}
	if runs == nil {
		runs = []recorder.ForecastRun{}
	}
	respondOK(c, runs)
}

func (s *Server) apiQuote(c *gin.Context) {
	symbol := collector.NormalizeSymbol(c.Query("symbol"))
	if symbol == "" {
		respondError(c, badParam("symbol", "this field is required"))
		return
	}
	respondOK(c, s.deps.Source.Quote(c.Request.Context(), symbol))
}

func (s *Server) apiIndices(c *gin.Context) {
	respondOK(c, s.deps.Source.Indices(c.Request.Context(), s.opts.Indices))
}

func (s *Server) apiGainers(c *gin.Context) {
	board, err := s.deps.Movers.Gainers(c.Request.Context())
	if err != nil {
		respondError(c, fmt.Errorf("%w: gainers: %v", collector.ErrDataUnavailable, err))
		return
	}
	respondOK(c, board)
}

func (s *Server) apiLosers(c *gin.Context) {
	losers, err := s.deps.Movers.Losers(c.Request.Context())
	if err != nil {
		respondError(c, fmt.Errorf("%w: losers: %v", collector.ErrDataUnavailable, err))
		return
	}
	respondOK(c, losers)
}

func (s *Server) apiResolve(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		respondError(c, badParam("name", "this field is required"))
		return
	}
	ticker, ok := s.deps.Source.ResolveSymbol(c.Request.Context(), name)
	if !ok {
		respondError(c, fmt.Errorf("%w: no ticker for %q", errNotFound, name))
		return
	}
	respondOK(c, gin.H{"name": name, "symbol": ticker})
}

func (s *Server) apiLanguages(c *gin.Context) {
	respondOK(c, translate.Languages)
}

type translateRequest struct {
	Lang  string   `json:"lang"`
	Texts []string `json:"texts"`
}

// apiTranslate returns one entry per input text. Failed entries come back
// untranslated so the page still renders.
func (s *Server) apiTranslate(c *gin.Context) {
	var req translateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badParam("body", err.Error()))
		return
	}
	if !translate.Supported(req.Lang) {
		respondError(c, badParam("lang", "unsupported language"))
		return
	}
	respondOK(c, s.translateAll(c.Request.Context(), req.Lang, req.Texts))
}

type strengthRequest struct {
	Password string `json:"password"`
}

func (s *Server) apiPasswordStrength(c *gin.Context) {
	var req strengthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badParam("body", err.Error()))
		return
	}
	respondOK(c, gin.H{"strength": string(auth.PasswordStrength(req.Password))})
}
