package fdc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriground/backend/config"
	"github.com/nutriground/backend/internal/domain"
)

func testConfig(baseURL string) config.FDCConfig {
	return config.FDCConfig{
		APIKey:          "test-api-key",
		BaseURL:         baseURL,
		PageSize:        10,
		RequestsPerHour: 100000, // effectively unlimited for tests
	}
}

func TestSearch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/foods/search", r.URL.Path)
		assert.Equal(t, "diet cola", r.URL.Query().Get("query"))
		assert.Equal(t, "test-api-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "10", r.URL.Query().Get("pageSize"))
		assert.Contains(t, r.URL.Query().Get("dataType"), "SR Legacy")

		response := domain.SearchResponse{
			Foods: []domain.FoodCandidate{
				{FdcID: 123, Description: "Cola, diet", DataType: "Branded"},
			},
			TotalHits: 1,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)

	candidates, err := client.Search(context.Background(), "diet cola")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, 123, candidates[0].FdcID)
	assert.Equal(t, "Cola, diet", candidates[0].Description)
}

func TestSearch_EmptyResultIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.SearchResponse{})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)

	candidates, err := client.Search(context.Background(), "xyzzy")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestSearch_NotFoundReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)

	candidates, err := client.Search(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestSearch_RetriesServerErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.SearchResponse{
			Foods: []domain.FoodCandidate{{FdcID: 7, Description: "Rice, white"}},
		})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)

	candidates, err := client.Search(context.Background(), "rice")
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
	assert.EqualValues(t, 3, atomic.LoadInt32(&attempts))
}

func TestSearch_ExhaustedRetriesReturnSearchUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)

	start := time.Now()
	_, err := client.Search(context.Background(), "rice")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSearchUnavailable)

	// Backoffs run between attempts only (500ms + 1s); sleeping again after
	// the last failure would add another 1.5s for nothing.
	assert.Less(t, elapsed, 2500*time.Millisecond,
		"no backoff should follow the final attempt")
}

func TestSearch_ClientErrorDoesNotRetry(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)

	_, err := client.Search(context.Background(), "rice")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSearchUnavailable)
	assert.EqualValues(t, 1, atomic.LoadInt32(&attempts))
}
