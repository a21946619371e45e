// Package server exposes the dashboard pages, the JSON API and the live
// websockets over gin.
package server

import (
	"embed"
	"html/template"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"StockDash/internal/account"
	"StockDash/internal/auth"
	"StockDash/internal/collector"
	"StockDash/internal/forecast"
	"StockDash/internal/live"
	"StockDash/internal/model"
	"StockDash/internal/observability"
	"StockDash/internal/recorder"
	"StockDash/internal/translate"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options are the request defaults and HTTP settings.
type Options struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
	SecureCookies  bool
	// TemplatesDir overrides the embedded page templates when set.
	TemplatesDir   string
	DefaultSymbol  string
	DefaultDays    int
	DefaultHorizon int
	Indices        []model.IndexTicker
}

// Deps are the services the controllers call into.
type Deps struct {
	Source    *collector.Source
	Movers    *collector.MoversCache
	Forecast  *forecast.Engine
	Auth      *auth.Service
	Sessions  *auth.SessionManager
	Account   *account.Service
	Translate *translate.Client
	Hub       *live.Hub
	Recorder  recorder.Recorder
	Metrics   *observability.Metrics
}

// Server holds the router and its dependencies.
type Server struct {
	opts   Options
	deps   Deps
	engine *gin.Engine
	now    func() time.Time
}

// New builds the router.
func New(opts Options, deps Deps) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.DefaultSymbol == "" {
		opts.DefaultSymbol = "SPY"
	}
	if opts.DefaultDays <= 0 {
		opts.DefaultDays = 3000
	}
	if opts.DefaultHorizon <= 0 {
		opts.DefaultHorizon = forecast.DefaultHorizon
	}
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	s := &Server{opts: opts, deps: deps, now: time.Now}
	s.engine = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.engine }

// HTTPServer wraps the router in an http.Server with the configured timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:           s.opts.Addr,
		Handler:        s.engine,
		ReadTimeout:    s.opts.ReadTimeout,
		WriteTimeout:   s.opts.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func (s *Server) templates() *template.Template {
	t := template.New("").Funcs(templateFuncs)
	if s.opts.TemplatesDir != "" {
		return template.Must(t.ParseGlob(filepath.Join(s.opts.TemplatesDir, "*.html")))
	}
	return template.Must(t.ParseFS(templateFS, "templates/*.html"))
}

func (s *Server) routes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())
	engine.MaxMultipartMemory = 8 << 20

	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	engine.SetHTMLTemplate(s.templates())
	engine.Use(s.loadSession)

	engine.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	engine.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))

	// Pages
	engine.GET("/", s.home)
	engine.GET("/signin", s.signinPage)
	engine.POST("/signin", s.signin)
	engine.GET("/signup", s.signupPage)
	engine.POST("/signup", s.signup)
	engine.GET("/reset", s.resetPage)
	engine.POST("/reset", s.reset)
	engine.GET("/logout", s.logout)

	pages := engine.Group("/", s.requirePage)
	{
		pages.GET("/dashboard", s.dashboard)
		pages.GET("/analysis", s.analysis)
		pages.GET("/settings", s.settingsPage)
		pages.POST("/settings/profile", s.saveProfile)
		pages.POST("/settings/password", s.changePassword)
		pages.POST("/settings/report", s.submitReport)
		pages.POST("/settings/support", s.submitSupport)
	}

	api := engine.Group("/api", s.requireAPI)
	{
		api.GET("/series", s.apiSeries)
		api.GET("/indicators", s.apiIndicators)
		api.GET("/forecast", s.apiForecast)
		api.GET("/forecast/history", s.apiForecastHistory)
		api.GET("/quote", s.apiQuote)
		api.GET("/indices", s.apiIndices)
		api.GET("/movers/gainers", s.apiGainers)
		api.GET("/movers/losers", s.apiLosers)
		api.GET("/resolve", s.apiResolve)
		api.GET("/languages", s.apiLanguages)
		api.POST("/translate", s.apiTranslate)
		api.POST("/password-strength", s.apiPasswordStrength)
	}

	ws := engine.Group("/ws", s.requireAPI)
	{
		ws.GET("/live", gin.WrapF(s.deps.Hub.ServeLive))
		ws.GET("/indices", gin.WrapF(s.deps.Hub.ServeIndices))
	}
	return engine
}
