package server

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/brockodle/twitchfollowergoal/internal/broadcast"
	"github.com/brockodle/twitchfollowergoal/internal/config"
	apperrors "github.com/brockodle/twitchfollowergoal/internal/errors"
	"github.com/brockodle/twitchfollowergoal/internal/goal"
)

const sessionMaxAgeDays = 7

// followerSource fetches the live follower count from an upstream API.
type followerSource interface {
	FollowerCount(ctx context.Context) (int, error)
}

// oauthService is the slice of the Streamlabs OAuth client the server needs.
type oauthService interface {
	AuthorizeURL(state string) string
	ExchangeCode(ctx context.Context, code string) error
	Authenticated() bool
}

type Server struct {
	echo           *echo.Echo
	config         *config.Config
	counter        *goal.Counter
	oauth          oauthService
	hub            *broadcast.Hub
	twitch         followerSource // nil without Twitch credentials
	sessionStore   *sessions.CookieStore
	widgetTemplate *template.Template
	writeLimiter   *requestRateLimiter
	startTime      time.Time

	// startSocket launches the push pipeline once OAuth completes.
	startSocket     func()
	startSocketOnce sync.Once
}

func NewServer(cfg *config.Config, counter *goal.Counter, oauth oauthService, hub *broadcast.Hub, twitch followerSource, startSocket func()) (*Server, error) {
	widgetTmpl, err := template.ParseFiles("web/templates/widget.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse widget template: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * sessionMaxAgeDays,
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}

	srv := &Server{
		echo:           e,
		config:         cfg,
		counter:        counter,
		oauth:          oauth,
		hub:            hub,
		twitch:         twitch,
		sessionStore:   sessionStore,
		widgetTemplate: widgetTmpl,
		writeLimiter:   newRequestRateLimiter(5, 10),
		startTime:      time.Now(),
		startSocket:    startSocket,
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// launchSocket starts the Streamlabs push pipeline exactly once.
func (s *Server) launchSocket() {
	if s.startSocket == nil {
		return
	}
	s.startSocketOnce.Do(s.startSocket)
}

// projection derives the display snapshot from the live counter.
func (s *Server) projection() (goal.Projection, error) {
	return goal.Project(s.counter.Current(), s.config.GoalTarget, "")
}

func renderTemplate(c echo.Context, tmpl *template.Template, data any) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	if err := tmpl.Execute(c.Response().Writer, data); err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}
	return nil
}

// noCache disables all response caching. Overlay hosts cache aggressively,
// so every data endpoint opts out explicitly.
func noCache(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Response().Header()
		h.Set("Cache-Control", "no-store, no-cache, must-revalidate")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")
		return next(c)
	}
}
