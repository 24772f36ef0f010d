package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) handleGetRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"service": "Kadha Story API",
		"status":  "ok",
	})
}

func (s *Server) handleGetBooks(c echo.Context) error {
	books, err := s.Store.Books(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

func (s *Server) handleGetBook(c echo.Context) error {
	book, err := s.Store.Book(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

func (s *Server) handleGetCharacters(c echo.Context) error {
	ctx := c.Request().Context()
	book, err := s.Store.Book(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	characters, err := s.Store.Characters(ctx, book.ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, characters)
}

func (s *Server) handleGetParts(c echo.Context) error {
	ctx := c.Request().Context()
	book, err := s.Store.Book(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	parts, err := s.Store.Parts(ctx, book.ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, parts)
}

func (s *Server) handleGetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Workshop.Status(c.Param("id")))
}
