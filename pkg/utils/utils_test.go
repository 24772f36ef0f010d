package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeWords_RoundTrip(t *testing.T) {
	for _, s := range []string{
		"Hello, world!",
		"അവൻ പറഞ്ഞു, \"നീ വരുമോ?\"",
		"  leading and trailing  ",
		"",
	} {
		assert.Equal(t, s, strings.Join(TokenizeWords(s), ""))
	}
}

func TestTokenizeWords_KeepsMalayalamWordsWhole(t *testing.T) {
	assert.Equal(t, []string{"പറഞ്ഞു", ",", " ", "വരുമോ", "?"}, TokenizeWords("പറഞ്ഞു, വരുമോ?"))
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, CleanJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `[1]`, CleanJSON("  [1] "))
}

func TestLimitStr(t *testing.T) {
	assert.Equal(t, "abc", LimitStr("abc", 3))
	assert.Equal(t, "ab...", LimitStr("abc", 2))
	assert.Equal(t, "അവ...", LimitStr("അവൻ", 2))
}

func TestSyncMap(t *testing.T) {
	m := NewSyncMap[map[string]int]()
	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			m.Update("n", func(v int, _ bool) int { return v + 1 })
		})
	}
	wg.Wait()

	v, ok := m.Load("n")
	require.True(t, ok)
	assert.Equal(t, 50, v)

	m.Update("skip", func(int, bool) int { return 1 })
	snap := m.Snapshot(func(k string, _ int) bool { return k != "skip" })
	assert.Equal(t, map[string]int{"n": 50}, snap)

	_, ok = m.Load("missing")
	assert.False(t, ok)
}

func TestSSEWriter(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	w, err := NewSSEWriter(c)
	require.NoError(t, err)
	require.NoError(t, w.Event("progress", map[string]int{"done": 1}))
	require.NoError(t, w.Event("note", "plain"))
	w.Close()
	require.NoError(t, w.Event("late", "ignored"))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "event: progress\ndata: {\"done\":1}\n\nevent: note\ndata: plain\n\nevent: close\ndata: null\n\n", rec.Body.String())
}
