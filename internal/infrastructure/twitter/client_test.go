package twitter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchMapsTweets(t *testing.T) {
	t.Parallel()

	var gotAuth, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("query")
		_, _ = w.Write([]byte(`{
			"data": [
				{"id": "100", "text": "Bitcoin breaks $100k", "author_id": "42", "created_at": "2026-08-30T10:00:00Z"},
				{"id": "101", "text": "Ethereum gas fees drop", "author_id": "43", "created_at": "2026-08-30T11:00:00Z"}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient("token-abc", "crypto -is:retweet", server.Client())
	client.searchURL = server.URL

	items, err := client.Fetch(context.Background(), 5)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if gotAuth != "Bearer token-abc" {
		t.Fatalf("unexpected auth header: %s", gotAuth)
	}
	if gotQuery != "crypto -is:retweet" {
		t.Fatalf("unexpected query: %s", gotQuery)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != "100" || items[0].Text != "Bitcoin breaks $100k" {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[0].URL != "https://twitter.com/i/status/100" {
		t.Fatalf("unexpected url: %s", items[0].URL)
	}
	if items[0].Source != "twitter" {
		t.Fatalf("source not stamped: %+v", items[0])
	}
}

func TestFetchRespectsLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"data": [
				{"id": "1", "text": "a tweet"},
				{"id": "2", "text": "b tweet"},
				{"id": "3", "text": "c tweet"}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient("token", "crypto", server.Client())
	client.searchURL = server.URL

	items, err := client.Fetch(context.Background(), 2)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
}

func TestFetchMissingToken(t *testing.T) {
	t.Parallel()

	client := NewClient("", "crypto", nil)
	if _, err := client.Fetch(context.Background(), 3); err == nil {
		t.Fatal("expected error without bearer token")
	}
}

func TestFetchErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient("bad-token", "crypto", server.Client())
	client.searchURL = server.URL

	if _, err := client.Fetch(context.Background(), 3); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestClampResults(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want int }{
		{3, 10},
		{10, 10},
		{50, 50},
		{150, 100},
	}
	for _, tc := range cases {
		if got := clampResults(tc.in); got != tc.want {
			t.Fatalf("clampResults(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
