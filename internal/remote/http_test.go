package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/listsync-service/internal/app/sync/domain"
)

func TestHTTPClient_Publish(t *testing.T) {
	t.Run("create posts to the collection and returns the assigned id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/listings", r.URL.Path)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]string{"remote_id": "MKT-77"})
		}))
		defer server.Close()

		client, err := NewHTTPClient(HTTPClientOptions{BaseURL: server.URL})
		require.NoError(t, err)

		result, err := client.Publish(context.Background(), domain.IntentCreate, "", []byte(`{"listing_id":1}`))
		require.NoError(t, err)
		assert.Equal(t, "MKT-77", result.RemoteID)
	})

	t.Run("update puts to the item path", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/api/listings/MKT-9", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client, err := NewHTTPClient(HTTPClientOptions{BaseURL: server.URL})
		require.NoError(t, err)

		// The canonical queue payload carries no remote id; the item path
		// comes from the caller.
		payload, _, err := (&domain.ListingPayload{
			ListingID:  9,
			Intent:     domain.IntentUpdate,
			Title:      "Espresso machine",
			PriceCents: 64900,
			Currency:   "EUR",
			Quantity:   1,
			CategoryID: "cat-kitchen",
		}).Canonicalize()
		require.NoError(t, err)

		result, err := client.Publish(context.Background(), domain.IntentUpdate, "MKT-9", payload)
		require.NoError(t, err)
		assert.Equal(t, "MKT-9", result.RemoteID)
	})

	t.Run("delete targets the item path", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/api/listings/MKT-9", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client, err := NewHTTPClient(HTTPClientOptions{BaseURL: server.URL})
		require.NoError(t, err)

		result, err := client.Publish(context.Background(), domain.IntentDelete, "MKT-9", []byte(`{"listing_id":9}`))
		require.NoError(t, err)
		assert.Equal(t, "MKT-9", result.RemoteID)
	})

	t.Run("update without a remote id fails permanently without a request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("unexpected request to %s", r.URL.Path)
		}))
		defer server.Close()

		client, err := NewHTTPClient(HTTPClientOptions{BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.Publish(context.Background(), domain.IntentUpdate, "", []byte(`{"listing_id":9}`))
		require.Error(t, err)
		assert.False(t, IsTransient(err))
	})

	t.Run("503 is transient", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client, err := NewHTTPClient(HTTPClientOptions{BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.Publish(context.Background(), domain.IntentCreate, "", []byte(`{}`))
		require.Error(t, err)

		var re *Error
		require.True(t, errors.As(err, &re))
		assert.Equal(t, http.StatusServiceUnavailable, re.StatusCode)
		assert.True(t, IsTransient(err))
	})

	t.Run("422 is permanent", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "price must be positive", http.StatusUnprocessableEntity)
		}))
		defer server.Close()

		client, err := NewHTTPClient(HTTPClientOptions{BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.Publish(context.Background(), domain.IntentCreate, "", []byte(`{}`))
		require.Error(t, err)
		assert.False(t, IsTransient(err))
	})

	t.Run("429 is transient", func(t *testing.T) {
		assert.True(t, classifyStatus(http.StatusTooManyRequests, nil).Transient)
	})
}

func TestHTTPClient_FetchInventory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/listings", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"listings":[
			{"item_id":"MKT-1","sku":"SKU-1","title":"first"},
			{"item_id":"MKT-2","title":"second"},
			{"title":"no id, skipped"}
		]}`))
	}))
	defer server.Close()

	client, err := NewHTTPClient(HTTPClientOptions{BaseURL: server.URL})
	require.NoError(t, err)

	items, err := client.FetchInventory(context.Background(), 25)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "MKT-1", items[0].ItemID)
	assert.Equal(t, "SKU-1", items[0].SKU)
	assert.Equal(t, "MKT-2", items[1].ItemID)
}

func TestHTTPClient_Auth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, err := NewHTTPClient(HTTPClientOptions{BaseURL: server.URL, AuthToken: "sekrit"})
	require.NoError(t, err)

	_, err = client.FetchListing(context.Background(), "MKT-1")
	require.NoError(t, err)
}

func TestIsTransient_UnclassifiedErrors(t *testing.T) {
	assert.True(t, IsTransient(errors.New("connection reset")))
}
