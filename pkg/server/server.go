package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kadha/pkg/inference"
	"kadha/pkg/metrics"
	"kadha/pkg/narrative"
	"kadha/pkg/store"
	"kadha/pkg/workshop"
)

type Server struct {
	Echo       *echo.Echo
	Store      *store.Store
	Workshop   *workshop.Service
	TotalParts int
}

func NewServer(st *store.Store, ws *workshop.Service) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(metrics.Middleware())

	s := &Server{
		Echo:       e,
		Store:      st,
		Workshop:   ws,
		TotalParts: store.DefaultTotalParts,
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)
	s.Echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.Echo.Group("/api")
	api.POST("/books", s.handlePostBook)
	api.GET("/books", s.handleGetBooks)
	api.GET("/books/:id", s.handleGetBook)

	api.POST("/books/:id/characters", s.handlePostCharacters) // one generation call -> []schema.Character
	api.GET("/books/:id/characters", s.handleGetCharacters)

	api.POST("/books/:id/arc", s.handlePostArc)
	api.GET("/books/:id/parts", s.handleGetParts)
	api.PUT("/books/:id/parts/:n", s.handlePutPart) // edits respond with a word diff

	api.POST("/books/:id/summaries", s.handlePostSummaries) // SSE
	api.DELETE("/books/:id/summaries", s.handleDeleteSummaries)

	api.POST("/books/:id/parts/:n/develop", s.handlePostDevelop) // SSE
	api.POST("/books/:id/develop", s.handlePostDevelopBatch)     // SSE

	api.GET("/books/:id/status", s.handleGetStatus)
	api.POST("/books/:id/select", s.handlePostSelect)
}

func (s *Server) Start(addr string) error {
	log.Info("server listening", "addr", addr)
	return s.Echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("shutting down server")
	shutDownErr := s.Echo.Shutdown(ctx)
	closeErr := s.Store.Close()
	if shutDownErr != nil {
		return shutDownErr
	}
	return closeErr
}

// httpError maps service errors onto status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, workshop.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, narrative.ErrInvalidRequest):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, workshop.ErrBusy):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, workshop.ErrBadCharacters), errors.Is(err, inference.ErrEmptyResponse):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		log.Error("request failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
