package openlibrary

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"library-platform/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.OpenLibraryConfig{BaseURL: srv.URL, Timeout: 2 * time.Second})
}

func TestBookByISBN_MapsResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("bibkeys"); got != "ISBN:9780140328721" {
			t.Fatalf("unexpected bibkeys %q", got)
		}
		if got := r.URL.Query().Get("jscmd"); got != "data" {
			t.Fatalf("unexpected jscmd %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"ISBN:9780140328721": {
				"title": "Fantastic Mr Fox",
				"authors": [{"name": "Roald Dahl", "url": "https://openlibrary.org/authors/OL34184A"}],
				"publishers": [{"name": "Puffin"}],
				"publish_date": "October 1, 1988",
				"number_of_pages": 96,
				"identifiers": {"isbn_10": ["0140328726"], "isbn_13": ["9780140328721"]}
			}
		}`))
	})

	info, err := c.BookByISBN(context.Background(), "9780140328721")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if info.Title != "Fantastic Mr Fox" {
		t.Fatalf("unexpected title %q", info.Title)
	}
	if len(info.Authors) != 1 || info.Authors[0] != "Roald Dahl" {
		t.Fatalf("unexpected authors %v", info.Authors)
	}
	if info.ISBN10 != "0140328726" || info.ISBN13 != "9780140328721" {
		t.Fatalf("unexpected identifiers %+v", info)
	}
	if info.NumberOfPages != 96 {
		t.Fatalf("unexpected pages %d", info.NumberOfPages)
	}
}

func TestBookByISBN_UnknownISBN(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.BookByISBN(context.Background(), "0000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBookByISBN_UpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.BookByISBN(context.Background(), "9780140328721")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
