package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func pinnedItemsServer(t *testing.T, handler http.HandlerFunc) *GraphQLClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewGraphQLClient(server.Client(), "ghp_test")
	c.endpoint = server.URL
	return c
}

func TestCountPinnedItems(t *testing.T) {
	c := pinnedItemsServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer ghp_test" {
			t.Errorf("Unexpected auth header %q", got)
		}

		var req graphQLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.Variables["login"] != "octocat" {
			t.Errorf("Unexpected login variable %v", req.Variables["login"])
		}

		w.Write([]byte(`{"data":{"user":{"pinnedItems":{"totalCount":4}}}}`))
	})

	count, err := c.CountPinnedItems(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("CountPinnedItems failed: %v", err)
	}
	if count != 4 {
		t.Errorf("Expected 4 pinned items, got %d", count)
	}
}

func TestCountPinnedItemsGraphQLError(t *testing.T) {
	c := pinnedItemsServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":null,"errors":[{"message":"rate limited"}]}`))
	})

	if _, err := c.CountPinnedItems(context.Background(), "octocat"); err == nil {
		t.Error("Expected error from GraphQL errors array")
	}
}

func TestCountPinnedItemsUnknownUser(t *testing.T) {
	c := pinnedItemsServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"user":null}}`))
	})

	if _, err := c.CountPinnedItems(context.Background(), "nobody"); err == nil {
		t.Error("Expected error for missing user")
	}
}

func TestCountPinnedItemsHTTPFailure(t *testing.T) {
	c := pinnedItemsServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	if _, err := c.CountPinnedItems(context.Background(), "octocat"); err == nil {
		t.Error("Expected error for non-200 response")
	}
}
