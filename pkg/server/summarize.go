package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"kadha/pkg/utils"
	"kadha/pkg/workshop"
)

type summariesReq struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// POST /api/books/:id/summaries
func (s *Server) handlePostSummaries(c echo.Context) error {
	var req summariesReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	ctx := c.Request().Context()
	book, err := s.Store.Book(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	if _, _, err := s.Workshop.SummaryRange(book, req.From, req.To); err != nil {
		return httpError(err)
	}

	w, err := utils.NewSSEWriter(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer w.Close()

	log.Info("starting summaries", "book", book.ID, "from", req.From, "to", req.To)
	saved, err := s.Workshop.GenerateSummaries(ctx, book.ID, req.From, req.To, func(p workshop.SummaryProgress) {
		if err := w.Event("progress", p); err != nil {
			log.Warn("could not stream summary progress", "error", err)
		}
	})
	if err != nil {
		return w.Event("error", map[string]any{
			"error": err.Error(),
			"saved": saved,
		})
	}
	return w.Event("done", map[string]any{"saved": saved})
}

// DELETE /api/books/:id/summaries
func (s *Server) handleDeleteSummaries(c echo.Context) error {
	ctx := c.Request().Context()
	book, err := s.Store.Book(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	n, err := s.Store.ClearSummaries(ctx, book.ID)
	if err != nil {
		return httpError(err)
	}
	log.Info("summaries cleared", "book", book.ID, "parts", n)
	return c.JSON(http.StatusOK, map[string]any{"cleared": n})
}
