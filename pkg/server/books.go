package server

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"kadha/pkg/diff"
	"kadha/pkg/schema"
	"kadha/pkg/store"
)

const maxParts = 500

type bookReq struct {
	Title         string   `json:"title"`
	Premise       string   `json:"premise"`
	Genres        []string `json:"genres"`
	Setting       string   `json:"setting"`
	Theme         string   `json:"theme"`
	POV           string   `json:"pov"`
	DialogueStyle string   `json:"dialogue_style"`
	Tone          string   `json:"tone"`
	TotalParts    int      `json:"total_parts"`
}

// POST /api/books
func (s *Server) handlePostBook(c echo.Context) error {
	var req bookReq
	if err := c.Bind(&req); err != nil {
		log.Warn("invalid JSON in /api/books", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if req.TotalParts < 0 || req.TotalParts > maxParts {
		return echo.NewHTTPError(http.StatusBadRequest, "total_parts out of range")
	}
	if req.TotalParts == 0 {
		req.TotalParts = s.TotalParts
	}

	book := &schema.Book{
		Title:         req.Title,
		Premise:       strings.TrimSpace(req.Premise),
		Genres:        req.Genres,
		Setting:       req.Setting,
		Theme:         req.Theme,
		POV:           req.POV,
		DialogueStyle: req.DialogueStyle,
		Tone:          req.Tone,
		TotalParts:    req.TotalParts,
	}
	if book.Genres == nil {
		book.Genres = []string{}
	}
	if err := s.Store.CreateBook(c.Request().Context(), book); err != nil {
		return httpError(err)
	}
	log.Info("book created", "id", book.ID, "title", book.Title, "parts", book.TotalParts)
	return c.JSON(http.StatusCreated, book)
}

// POST /api/books/:id/characters
func (s *Server) handlePostCharacters(c echo.Context) error {
	characters, err := s.Workshop.GenerateCharacters(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"characters": characters})
}

type arcReq struct {
	Parts int `json:"parts"`
}

// POST /api/books/:id/arc
func (s *Server) handlePostArc(c echo.Context) error {
	var req arcReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	ctx := c.Request().Context()
	book, err := s.Store.Book(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	if req.Parts == 0 {
		req.Parts = book.TotalParts
	}
	if req.Parts < 0 || req.Parts > maxParts {
		return echo.NewHTTPError(http.StatusBadRequest, "parts out of range")
	}
	parts, err := s.Store.SetupArc(ctx, book.ID, req.Parts)
	if err != nil {
		return httpError(err)
	}
	log.Info("story arc created", "book", book.ID, "parts", len(parts))
	return c.JSON(http.StatusOK, parts)
}

// PUT /api/books/:id/parts/:n
func (s *Server) handlePutPart(c echo.Context) error {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil || n < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid part number")
	}
	var req store.PartUpdate
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if req.Personality != nil && *req.Personality != "" && !slices.Contains(schema.Personalities, *req.Personality) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown personality")
	}

	ctx := c.Request().Context()
	book, err := s.Store.Book(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	before, after, err := s.Store.UpdatePart(ctx, book.ID, n, req)
	if err != nil {
		return httpError(err)
	}

	changes := diff.Text(before.Content, after.Content)
	if changes.Changed() {
		log.Info("part edited", "book", book.ID, "part", n, "added", changes.WordsAdded, "removed", changes.WordsRemoved)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"part": after,
		"diff": changes,
	})
}

type selectReq struct {
	Parts    []int `json:"parts"`
	Selected bool  `json:"selected"`
}

// POST /api/books/:id/select
func (s *Server) handlePostSelect(c echo.Context) error {
	var req selectReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if len(req.Parts) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "parts are required")
	}
	return c.JSON(http.StatusOK, s.Workshop.Select(c.Param("id"), req.Parts, req.Selected))
}
