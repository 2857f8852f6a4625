package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/lovenotes/anniversary/internal/content"
	"github.com/lovenotes/anniversary/internal/content/repository"
	"github.com/lovenotes/anniversary/internal/content/service"
	"github.com/lovenotes/anniversary/internal/page"
	"github.com/lovenotes/anniversary/internal/view"
)

func TestContentHandler_Get(t *testing.T) {
	repo := repository.NewMemoryRepo()
	require.NoError(t, repo.MergeWrite(context.Background(), "c", "d", content.Document{
		"hero-name-2": "Sam",
		"start-date":  "2000-01-01T00:00",
	}))
	mgr := page.NewManager(page.Options{
		Schema:  content.DefaultSchema(),
		Content: service.New(repo, "c", "d"),
		Clock:   view.NewClock(time.UTC, content.DefaultSchema().Defaults()["start-date"]),
	})

	g := gin.New()
	RegisterContentRoutes(g, mgr)

	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/content", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Values    map[string]string `json:"values"`
		StartDate string            `json:"startDate"`
		Elapsed   view.Elapsed      `json:"elapsed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, "Sam", got.Values["hero-name-2"])
	require.Equal(t, "Aashu", got.Values["hero-name-1"])
	require.Len(t, got.Values, 42)
	require.Equal(t, "2000-01-01T00:00", got.StartDate)
	want := view.Between(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), time.Now().UTC())
	require.InDelta(t, want.Years, got.Elapsed.Years, 1)
	require.GreaterOrEqual(t, got.Elapsed.Years, 25)
}

func TestContentHandler_ElapsedFollowsStoredStartDate(t *testing.T) {
	repo := repository.NewMemoryRepo()
	mgr := page.NewManager(page.Options{
		Schema:  content.DefaultSchema(),
		Content: service.New(repo, "c", "d"),
		Clock:   view.NewClock(time.UTC, "2021-07-07T16:00"),
	})
	g := gin.New()
	RegisterContentRoutes(g, mgr)

	get := func() (string, view.Elapsed) {
		w := httptest.NewRecorder()
		g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/content", nil))
		require.Equal(t, http.StatusOK, w.Code)
		var got struct {
			StartDate string       `json:"startDate"`
			Elapsed   view.Elapsed `json:"elapsed"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		return got.StartDate, got.Elapsed
	}

	start, _ := get()
	require.Equal(t, "2021-07-07T16:00", start)

	require.NoError(t, repo.MergeWrite(context.Background(), "c", "d", content.Document{"start-date": "1990-01-01T00:00"}))
	start, elapsed := get()
	require.Equal(t, "1990-01-01T00:00", start)
	require.GreaterOrEqual(t, elapsed.Years, 35)
}
