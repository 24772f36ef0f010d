package server

import (
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"kadha/pkg/narrative"
	"kadha/pkg/utils"
	"kadha/pkg/workshop"
)

// POST /api/books/:id/parts/:n/develop
func (s *Server) handlePostDevelop(c echo.Context) error {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil || n < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid part number")
	}
	ctx := c.Request().Context()
	bookID := c.Param("id")
	part, err := s.Store.Part(ctx, bookID, n)
	if err != nil {
		return httpError(err)
	}
	if s.Workshop.Tracker().Get(bookID, n).Phase == workshop.Generating {
		return httpError(workshop.ErrBusy)
	}

	w, err := utils.NewSSEWriter(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer w.Close()

	log.Info("developing part", "book", bookID, "part", part.PartNumber)
	res, err := s.Workshop.DevelopPart(ctx, bookID, n, func(p narrative.Progress) {
		if err := w.Event("progress", p); err != nil {
			log.Warn("could not stream progress", "part", n, "error", err)
		}
	})
	switch {
	case err != nil:
		return w.Event("error", map[string]any{"error": err.Error(), "result": res})
	case res.Err != nil:
		return w.Event("error", map[string]any{"error": res.Err.Error(), "result": res})
	default:
		return w.Event("done", res)
	}
}

type developBatchReq struct {
	Parts []int `json:"parts"`
}

// POST /api/books/:id/develop
func (s *Server) handlePostDevelopBatch(c echo.Context) error {
	var req developBatchReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	ctx := c.Request().Context()
	book, err := s.Store.Book(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	if len(req.Parts) == 0 && len(s.Workshop.Tracker().Selected(book.ID)) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no parts selected")
	}

	w, err := utils.NewSSEWriter(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer w.Close()

	outcomes, err := s.Workshop.DevelopSelected(ctx, book.ID, req.Parts, func(p workshop.PartProgress) {
		if err := w.Event("progress", p); err != nil {
			log.Warn("could not stream progress", "part", p.Part, "error", err)
		}
	})
	if err != nil {
		return w.Event("error", map[string]any{"error": err.Error()})
	}
	return w.Event("done", outcomes)
}
