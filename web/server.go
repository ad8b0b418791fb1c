// ABOUTME: HTTP server exposing the collections API and a read-only dashboard
// ABOUTME: Echo routes with bearer-token auth in front of any collection store
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/innkeep/auth"
	"github.com/harperreed/innkeep/collection"
	"github.com/harperreed/innkeep/models"
	"github.com/harperreed/innkeep/schema"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

//go:embed templates/*.html
var templatesFS embed.FS

const claimsKey = "claims"

// Options wires a Server to its collaborators.
type Options struct {
	Store         collection.Store
	Authenticator auth.Authenticator
	Validator     auth.TokenValidator
	Logger        *log.Logger
}

// Server serves the collections API.
type Server struct {
	echo      *echo.Echo
	store     collection.Store
	auth      auth.Authenticator
	validator auth.TokenValidator
	logger    *log.Logger
	now       func() time.Time
}

type templateRenderer struct {
	templates *template.Template
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// NewServer builds the echo instance and registers every route.
func NewServer(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("web: store is required")
	}
	if opts.Authenticator == nil || opts.Validator == nil {
		return nil, errors.New("web: authenticator and validator are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	tmpl, err := template.New("").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = &templateRenderer{templates: tmpl}
	e.HTTPErrorHandler = jsonErrorHandler(logger)

	s := &Server{
		echo:      e,
		store:     opts.Store,
		auth:      opts.Authenticator,
		validator: opts.Validator,
		logger:    logger.With("component", "web"),
		now:       time.Now,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestLogger)

	e.GET("/", s.handleDashboard)
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.POST("/api/login", s.handleLogin)

	api := e.Group("/api", s.requireAuth)
	api.GET("/counts", s.handleCounts)
	api.GET("/collections/:name", s.handleList)
	api.POST("/collections/:name", s.handleCreate)
	api.PUT("/collections/:name/:id", s.handleUpdate)
	api.DELETE("/collections/:name/:id", s.handleDelete)

	return s, nil
}

// Handler exposes the server for httptest and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting web server", "addr", addr)
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := s.now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.logger.Debug("request",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"status", c.Response().Status,
			"duration", time.Since(start),
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		)
		return nil
	}
}

func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := s.validator.Validate(auth.ExtractBearerToken(c.Request()))
		if err != nil {
			return s.fail(err)
		}
		c.Set(claimsKey, claims)
		return next(c)
	}
}

// fail converts a domain error into an echo HTTP error.
func (s *Server) fail(err error) error {
	info := storeErrors.Map(err)
	if info.Status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	return echo.NewHTTPError(info.Status, info.Message).SetInternal(err)
}

func jsonErrorHandler(logger *log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		message := "internal server error"
		code := ""
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			switch m := he.Message.(type) {
			case errorResponse:
				message, code = m.Error, m.Code
			default:
				message = fmt.Sprint(m)
			}
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, errorResponse{Error: message, Code: code})
		}
		if err != nil {
			logger.Warn("failed to write error response", "err", err)
		}
	}
}

// errorResponse is the JSON error envelope. Code is set when the status
// alone is ambiguous.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type loginRequest struct {
	Nickname string `json:"nickname"`
	Passcode string `json:"passcode"`
}

type loginResponse struct {
	Token  string      `json:"token"`
	Member auth.Member `json:"member"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	token, member, err := s.auth.Login(c.Request().Context(), req.Nickname, req.Passcode)
	if err != nil {
		return s.fail(err)
	}
	s.logger.Info("member signed in", "nickname", member.Nickname)
	return c.JSON(http.StatusOK, loginResponse{Token: token, Member: member})
}

func collectionParam(c echo.Context) (string, error) {
	name := c.Param("name")
	if !models.IsCollection(name) {
		return "", echo.NewHTTPError(http.StatusNotFound, errorResponse{
			Error: "unknown collection " + name,
			Code:  models.CodeUnknownCollection,
		})
	}
	return name, nil
}

func decodeRecord(c echo.Context) (models.Record, error) {
	var rec models.Record
	if err := json.NewDecoder(c.Request().Body).Decode(&rec); err != nil {
		return models.Record{}, echo.NewHTTPError(http.StatusBadRequest, "invalid record body")
	}
	return rec, nil
}

func (s *Server) handleList(c echo.Context) error {
	name, err := collectionParam(c)
	if err != nil {
		return err
	}

	var opts models.ListOptions
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		opts.Limit = limit
	}

	res, err := s.store.GetAll(c.Request().Context(), name, opts)
	if err != nil {
		return s.fail(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleCreate(c echo.Context) error {
	name, err := collectionParam(c)
	if err != nil {
		return err
	}
	rec, err := decodeRecord(c)
	if err != nil {
		return err
	}

	out, err := s.store.Create(c.Request().Context(), name, rec)
	if err != nil {
		return s.fail(err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (s *Server) handleUpdate(c echo.Context) error {
	name, err := collectionParam(c)
	if err != nil {
		return err
	}
	rec, err := decodeRecord(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	if rec.ID == "" {
		rec.ID = id
	}
	if rec.ID != id {
		return echo.NewHTTPError(http.StatusBadRequest, "record id does not match path")
	}

	out, err := s.store.Update(c.Request().Context(), name, rec)
	if err != nil {
		return s.fail(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleDelete(c echo.Context) error {
	name, err := collectionParam(c)
	if err != nil {
		return err
	}
	if err := s.store.Delete(c.Request().Context(), name, c.Param("id")); err != nil {
		return s.fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleCounts(c echo.Context) error {
	counts, err := collection.Summarize(c.Request().Context(), s.store, models.Collections...)
	if err != nil {
		return s.fail(err)
	}
	return c.JSON(http.StatusOK, counts)
}

type dashboardCard struct {
	Label string
	Count int
}

func (s *Server) handleDashboard(c echo.Context) error {
	counts, err := collection.Summarize(c.Request().Context(), s.store, models.Collections...)
	if err != nil {
		return s.fail(err)
	}

	cards := make([]dashboardCard, 0, len(models.Collections))
	for _, sc := range schema.All() {
		cards = append(cards, dashboardCard{Label: sc.Title, Count: counts[sc.Collection]})
	}

	return c.Render(http.StatusOK, "dashboard.html", map[string]interface{}{
		"Title":   "Hotel Dashboard",
		"Cards":   cards,
		"Updated": s.now().Format("Jan 2, 2006 15:04"),
	})
}
