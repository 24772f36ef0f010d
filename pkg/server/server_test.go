package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kadha/pkg/inference"
	"kadha/pkg/narrative"
	"kadha/pkg/schema"
	"kadha/pkg/store"
	"kadha/pkg/workshop"
)

func newTestServer(t *testing.T, gen inference.Generator) *Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "kadha.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ws := workshop.New(st, gen, workshop.Options{
		TargetWords:      8,
		ChunkWords:       4,
		BatchConcurrency: 2,
		SummaryPage:      2,
		Narrative:        narrative.Options{Pacer: narrative.NoDelay},
	})
	return NewServer(st, ws)
}

func fixed(text string) inference.Generator {
	return inference.GeneratorFunc(func(context.Context, string) (string, error) { return text, nil })
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func createBook(t *testing.T, s *Server) schema.Book {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/books", `{"title":"നിഴൽ","premise":"A village girl returns to the city","genres":["Romance"],"total_parts":4}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var book schema.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &book))
	return book
}

func TestRootAndMetrics(t *testing.T) {
	s := newTestServer(t, fixed("x"))

	rec := do(t, s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "kadha_http_requests_total")
}

func TestBooks(t *testing.T) {
	s := newTestServer(t, fixed("x"))
	book := createBook(t, s)
	assert.Equal(t, 4, book.TotalParts)
	assert.NotEmpty(t, book.ID)

	rec := do(t, s, http.MethodGet, "/api/books/"+book.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/books", "")
	var books []schema.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &books))
	assert.Len(t, books, 1)

	rec = do(t, s, http.MethodGet, "/api/books/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/books", `{"title":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCharacters(t *testing.T) {
	s := newTestServer(t, fixed(`[{"name":"രാധ","role":"Protagonist","connections":[]}]`))
	book := createBook(t, s)

	rec := do(t, s, http.MethodPost, "/api/books/"+book.ID+"/characters", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "രാധ")

	rec = do(t, s, http.MethodPost, "/api/books/"+book.ID+"/characters", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/books/"+book.ID+"/characters", "")
	var characters []schema.Character
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &characters))
	require.Len(t, characters, 1)
	assert.Equal(t, "Protagonist", characters[0].Role)
}

func TestArcAndPartEdit(t *testing.T) {
	s := newTestServer(t, fixed("x"))
	book := createBook(t, s)

	rec := do(t, s, http.MethodPost, "/api/books/"+book.ID+"/arc", `{"parts":3}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/books/"+book.ID+"/parts", "")
	var parts []schema.Part
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parts))
	assert.Len(t, parts, 3)

	rec = do(t, s, http.MethodPut, "/api/books/"+book.ID+"/parts/2", `{"content":"അവൻ പറഞ്ഞു"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPut, "/api/books/"+book.ID+"/parts/2", `{"content":"അവൻ ഉറക്കെ പറഞ്ഞു","personality":"poetic"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Part schema.Part `json:"part"`
		Diff struct {
			WordsAdded   int `json:"words_added"`
			WordsRemoved int `json:"words_removed"`
		} `json:"diff"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "poetic", resp.Part.Personality)
	assert.Equal(t, 1, resp.Diff.WordsAdded)
	assert.Zero(t, resp.Diff.WordsRemoved)

	rec = do(t, s, http.MethodPut, "/api/books/"+book.ID+"/parts/2", `{"personality":"grumpy"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPut, "/api/books/"+book.ID+"/parts/zero", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummariesStreamAndClear(t *testing.T) {
	s := newTestServer(t, fixed("രാധ നഗരത്തിലേക്ക് മടങ്ങുന്നു."))
	book := createBook(t, s)

	rec := do(t, s, http.MethodPost, "/api/books/"+book.ID+"/summaries", `{"from":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Equal(t, 2, strings.Count(body, "event: progress"))
	assert.Contains(t, body, "event: done")

	rec = do(t, s, http.MethodGet, "/api/books/"+book.ID+"/parts", "")
	var parts []schema.Part
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parts))
	require.Len(t, parts, 2)
	assert.Equal(t, "രാധ നഗരത്തിലേക്ക് മടങ്ങുന്നു.", parts[0].Summary)

	rec = do(t, s, http.MethodDelete, "/api/books/"+book.ID+"/summaries", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"cleared":2}`, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/api/books/"+book.ID+"/summaries", `{"from":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDevelopStreamsProgress(t *testing.T) {
	s := newTestServer(t, fixed("one two three four"))
	book := createBook(t, s)
	rec := do(t, s, http.MethodPut, "/api/books/"+book.ID+"/parts/1", `{"summary":"A hero confronts a rival."}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/books/"+book.ID+"/parts/1/develop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, 3, strings.Count(body, "event: progress"))
	assert.Contains(t, body, `event: done`)
	assert.Contains(t, body, `"reached_target":true`)

	rec = do(t, s, http.MethodGet, "/api/books/"+book.ID+"/parts", "")
	var parts []schema.Part
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parts))
	require.Len(t, parts, 1)
	assert.Equal(t, "one two three four\n\none two three four", parts[0].Content)

	rec = do(t, s, http.MethodGet, "/api/books/"+book.ID+"/status", "")
	assert.Contains(t, rec.Body.String(), `"phase":"done"`)

	rec = do(t, s, http.MethodPost, "/api/books/"+book.ID+"/parts/9/develop", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.True(t, s.Workshop.Tracker().Begin(book.ID, 1))
	rec = do(t, s, http.MethodPost, "/api/books/"+book.ID+"/parts/1/develop", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDevelopBatchUsesSelection(t *testing.T) {
	s := newTestServer(t, fixed("one two three four five six seven eight"))
	book := createBook(t, s)
	for _, n := range []string{"1", "2"} {
		rec := do(t, s, http.MethodPut, "/api/books/"+book.ID+"/parts/"+n, `{"summary":"s"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(t, s, http.MethodPost, "/api/books/"+book.ID+"/develop", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/books/"+book.ID+"/select", `{"parts":[1,2],"selected":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, strings.Count(rec.Body.String(), `"phase":"selected"`))

	rec = do(t, s, http.MethodPost, "/api/books/"+book.ID+"/develop", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "event: done")
	assert.Equal(t, 2, strings.Count(body, `"reached_target":true`))
}
