package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"newsagent/agent"
	"newsagent/config"
	"newsagent/news/newsapi"
	"newsagent/provider"
	"newsagent/session"
	"newsagent/session/inmemory"
	redisstore "newsagent/session/redis"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Run wires the full application and serves HTTP until the listener fails.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", healthHandler())
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	llm, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return err
	}
	news := newsapi.New(cfg.NewsAPI.APIKey, cfg.NewsAPI.Endpoint, cfg.NewsAPI.Timeout)
	sessions, err := newSessionStore(context.Background(), cfg.Session)
	if err != nil {
		return err
	}
	ag := agent.New(llm, news, sessions, nil,
		agent.WithSearchDefaults(cfg.NewsAPI.PageSize, cfg.NewsAPI.MaxResults))

	api := e.Group("/api")
	qh := &QueryHandler{Agent: ag, Logger: baseLogger, Timeout: cfg.General.DefaultTimeout}
	qh.Register(api)

	addr := cfg.Server.Address
	if addr == "" {
		addr = ":8000"
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

func newSessionStore(ctx context.Context, cfg config.SessionConfig) (session.Store, error) {
	switch session.StoreType(cfg.StoreType) {
	case session.RedisStore:
		return redisstore.NewStore(ctx, cfg)
	case session.InMemoryStore:
		return inmemory.NewStore(cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unsupported session store type: %s", cfg.StoreType)
	}
}

// healthHandler reports the service map. Config validation at startup
// guarantees both API keys are present once the server is running.
func healthHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, HealthResponse{
			Status:  "healthy",
			Version: Version,
			Services: map[string]string{
				"llm":     "ok",
				"newsapi": "ok",
				"agent":   "ok",
			},
		})
	}
}
