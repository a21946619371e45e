package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/guregu/null/v6"

	"StockDash/internal/auth"
)

var templateFuncs = template.FuncMap{
	"json": func(v any) (template.JS, error) {
		b, err := json.Marshal(v)
		return template.JS(b), err
	},
	"fieldErr": func(errs map[string]string, field string) string { return errs[field] },
	"num":      func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"pct":      func(v float64) string { return fmt.Sprintf("%+.2f%%", v) },
	"nullnum":  nullNum,
	"nullpct":  nullPct,
}

func nullNum(v null.Float) string {
	if !v.Valid {
		return "—"
	}
	return fmt.Sprintf("%.2f", v.Float64)
}

func nullPct(v null.Float) string {
	if !v.Valid {
		return "—"
	}
	return fmt.Sprintf("%+.2f%%", v.Float64)
}

// render executes a page template with the signed-in user attached.
func (s *Server) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if u, ok := currentUser(c); ok {
		data["User"] = u
	}
	c.HTML(status, name, data)
}

// formError renders a form page with the status and messages classify assigns to err.
func (s *Server) formError(c *gin.Context, name string, err error, data gin.H) {
	status, fields := classify(err)
	if data == nil {
		data = gin.H{}
	}
	data["Errors"] = fields
	switch status {
	case http.StatusInternalServerError:
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		data["Error"] = "Something went wrong, please try again."
	case http.StatusBadRequest:
		data["Error"] = "Please correct the highlighted fields."
	default:
		data["Error"] = err.Error()
	}
	s.render(c, status, name, data)
}

func (s *Server) home(c *gin.Context) {
	s.render(c, http.StatusOK, "home.html", nil)
}

// safeNext only follows local redirects.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/dashboard"
	}
	return next
}

func (s *Server) signinPage(c *gin.Context) {
	if _, ok := currentUser(c); ok {
		c.Redirect(http.StatusSeeOther, "/dashboard")
		return
	}
	s.render(c, http.StatusOK, "signin.html", gin.H{
		"Next":  c.Query("next"),
		"Reset": c.Query("reset") != "",
	})
}

func (s *Server) signin(c *gin.Context) {
	email := c.PostForm("email")
	next := c.PostForm("next")
	username, err := s.deps.Auth.Authenticate(c.Request.Context(), email, c.PostForm("password"))
	if err != nil {
		s.formError(c, "signin.html", err, gin.H{"Email": email, "Next": next})
		return
	}
	s.startSession(c, strings.ToLower(strings.TrimSpace(email)), username)
	c.Redirect(http.StatusSeeOther, safeNext(next))
}

func (s *Server) signupPage(c *gin.Context) {
	s.render(c, http.StatusOK, "signup.html", nil)
}

func (s *Server) signup(c *gin.Context) {
	in := auth.RegisterInput{
		Email:    c.PostForm("email"),
		Username: c.PostForm("username"),
		Password: c.PostForm("password"),
		Confirm:  c.PostForm("confirm"),
	}
	u, err := s.deps.Auth.Register(c.Request.Context(), in)
	if err != nil {
		s.formError(c, "signup.html", err, gin.H{"Email": in.Email, "Username": in.Username})
		return
	}
	s.startSession(c, u.Email, u.Username)
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

// resetPage shows the request form, or the new password form when the
// mailed link's token and email are present.
func (s *Server) resetPage(c *gin.Context) {
	s.render(c, http.StatusOK, "reset.html", gin.H{
		"Token": c.Query("token"),
		"Email": c.Query("email"),
	})
}

func (s *Server) reset(c *gin.Context) {
	ctx := c.Request.Context()
	token := c.PostForm("token")
	email := c.PostForm("email")
	data := gin.H{"Token": token, "Email": email}

	if token == "" {
		if _, err := s.deps.Auth.RequestReset(ctx, email); err != nil {
			s.formError(c, "reset.html", err, data)
			return
		}
		data["Sent"] = true
		s.render(c, http.StatusOK, "reset.html", data)
		return
	}

	err := s.deps.Auth.CompleteReset(ctx, token, email, c.PostForm("password"), c.PostForm("confirm"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			// the link is dead; fall back to the request form
			data["Token"] = ""
		}
		s.formError(c, "reset.html", err, data)
		return
	}
	c.Redirect(http.StatusSeeOther, "/signin?reset=1")
}

func (s *Server) logout(c *gin.Context) {
	s.endSession(c)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	data := gin.H{"Indices": s.opts.Indices}
	if board, err := s.deps.Movers.Gainers(ctx); err != nil {
		data["GainersError"] = "Gainers are unavailable right now."
	} else {
		data["Gainers"] = board
	}
	if losers, err := s.deps.Movers.Losers(ctx); err != nil {
		data["LosersError"] = "Losers are unavailable right now."
	} else {
		data["Losers"] = losers
	}
	s.render(c, http.StatusOK, "dashboard.html", data)
}

// Indicator choices on the visualize view.
var chartIndicators = []string{"Close", "BB", "MACD", "RSI", "SMA", "EMA"}

func (s *Server) analysis(c *gin.Context) {
	mode := c.DefaultQuery("mode", "visualize")
	indicator := c.DefaultQuery("indicator", "Close")
	data := gin.H{
		"Mode":       mode,
		"Indicator":  indicator,
		"Indicators": chartIndicators,
	}

	q, err := s.parseSeriesQuery(c)
	data["Symbol"] = q.Symbol
	data["Start"] = q.Start.Format(dateLayout)
	data["End"] = q.End.Format(dateLayout)
	data["Horizon"] = q.Horizon
	if err != nil {
		data["Start"] = c.Query("start")
		data["End"] = c.Query("end")
		s.formError(c, "analysis.html", err, data)
		return
	}

	ctx := c.Request.Context()
	switch mode {
	case "recent":
		data["Quote"] = s.deps.Source.Quote(ctx, q.Symbol)
		s.render(c, http.StatusOK, "analysis.html", data)
		return
	case "visualize", "predict":
	default:
		s.formError(c, "analysis.html", badParam("mode", "choose visualize, recent or predict"), data)
		return
	}

	series, err := s.fetch(ctx, q)
	if err != nil {
		// rendered inline; the page keeps working with no chart
		data["Unavailable"] = fmt.Sprintf("Data for %s is unavailable right now. Please try again shortly.", q.Symbol)
		s.render(c, http.StatusOK, "analysis.html", data)
		return
	}

	if mode == "predict" {
		fc, err := s.runForecast(ctx, series, q.Horizon)
		if err != nil {
			s.formError(c, "analysis.html", err, data)
			return
		}
		data["Forecast"] = fc
		data["Chart"] = fc.Points
		s.render(c, http.StatusOK, "analysis.html", data)
		return
	}

	view, err := buildIndicators(series)
	if err != nil {
		s.formError(c, "analysis.html", err, data)
		return
	}
	data["Summary"] = view.Summary
	data["Outlook"] = view.Outlook
	data["Chart"] = view.Indicators
	s.render(c, http.StatusOK, "analysis.html", data)
}
