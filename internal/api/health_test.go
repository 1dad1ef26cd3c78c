package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/familyrecipes/backend/internal/metrics"
	"github.com/pageza/familyrecipes/backend/internal/testhelpers"
)

type staticSnapshot metrics.Snapshot

func (s staticSnapshot) Current() metrics.Snapshot { return metrics.Snapshot(s) }

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testhelpers.SetupSQLiteDB(t)
	router := gin.New()
	router.GET("/health", NewHealthHandler(db, staticSnapshot{TotalRecipes: 7, AverageRating: 2.5}).Health)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status   string           `json:"status"`
		Database string           `json:"database"`
		Metrics  metrics.Snapshot `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "up", body.Database)
	assert.Equal(t, int64(7), body.Metrics.TotalRecipes)
	assert.Equal(t, 2.5, body.Metrics.AverageRating)
}

func TestHealthDatabaseDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testhelpers.SetupSQLiteDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	router := gin.New()
	router.GET("/health", NewHealthHandler(db, nil).Health)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"down"`)
}
