package suggest

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
)

func TestSuggest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/suggestions", r.URL.Path)
		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "oatmeal cookies", req.Prompt)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"suggestions":["oats","sugar","butter"]}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL, time.Second).Suggest(context.Background(), "  oatmeal cookies ")
	require.NoError(t, err)
	assert.Equal(t, []string{"oats", "sugar", "butter"}, got)
}

func TestSuggestFailureIsRetryable(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "model overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"suggestions":["a"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Suggest(context.Background(), "plan trip")
	require.Error(t, err)

	got, err := c.Suggest(context.Background(), "plan trip")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls), "results must not be cached")
}

func TestSuggestEmptyPrompt(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:1", time.Second).Suggest(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}
