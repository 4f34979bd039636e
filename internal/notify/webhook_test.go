package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON_SendsPayload(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	err := postJSON(context.Background(), srv.Client(), srv.URL, map[string]string{"text": "filled"}, "telegram")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"text": "filled"}, got)
}

func TestPostJSON_SurfacesErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad chat id", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := postJSON(context.Background(), srv.Client(), srv.URL, map[string]string{}, "telegram")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "bad chat id")
}
