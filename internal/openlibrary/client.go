// Package openlibrary is a thin client for the Open Library books API,
// used to prefill catalog entries from an ISBN.
package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"library-platform/internal/config"
)

// ErrNotFound means Open Library has no record for the ISBN.
var ErrNotFound = errors.New("book not found")

// BookInfo is the subset of Open Library book metadata the catalog uses.
type BookInfo struct {
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Publishers    []string `json:"publishers"`
	PublishDate   string   `json:"publish_date"`
	NumberOfPages int      `json:"number_of_pages"`
	ISBN10        string   `json:"isbn_10,omitempty"`
	ISBN13        string   `json:"isbn_13,omitempty"`
}

type bookDTO struct {
	Title   string `json:"title"`
	Authors []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"authors"`
	Publishers []struct {
		Name string `json:"name"`
	} `json:"publishers"`
	PublishDate   string `json:"publish_date"`
	NumberOfPages int    `json:"number_of_pages"`
	Identifiers   struct {
		ISBN10 []string `json:"isbn_10"`
		ISBN13 []string `json:"isbn_13"`
	} `json:"identifiers"`
}

type Client struct {
	baseURL string
	httpc   *http.Client
}

func NewClient(cfg config.OpenLibraryConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpc:   &http.Client{Timeout: cfg.Timeout},
	}
}

// BookByISBN fetches book metadata for a single ISBN
// (GET /api/books?bibkeys=ISBN:<isbn>&format=json&jscmd=data).
func (c *Client) BookByISBN(ctx context.Context, isbn string) (BookInfo, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return BookInfo{}, ErrNotFound
	}
	bibkey := "ISBN:" + isbn

	q := url.Values{}
	q.Set("bibkeys", bibkey)
	q.Set("format", "json")
	q.Set("jscmd", "data")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/books?"+q.Encode(), nil)
	if err != nil {
		return BookInfo{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return BookInfo{}, fmt.Errorf("openlibrary request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return BookInfo{}, fmt.Errorf("openlibrary status %d", resp.StatusCode)
	}

	// The response is keyed by bibkey; an unknown ISBN yields an empty object.
	var payload map[string]bookDTO
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return BookInfo{}, fmt.Errorf("openlibrary decode: %w", err)
	}
	dto, ok := payload[bibkey]
	if !ok {
		return BookInfo{}, ErrNotFound
	}
	return mapBookInfo(dto), nil
}

func mapBookInfo(dto bookDTO) BookInfo {
	info := BookInfo{
		Title:         dto.Title,
		PublishDate:   dto.PublishDate,
		NumberOfPages: dto.NumberOfPages,
	}
	for _, a := range dto.Authors {
		info.Authors = append(info.Authors, a.Name)
	}
	for _, p := range dto.Publishers {
		info.Publishers = append(info.Publishers, p.Name)
	}
	if len(dto.Identifiers.ISBN10) > 0 {
		info.ISBN10 = dto.Identifiers.ISBN10[0]
	}
	if len(dto.Identifiers.ISBN13) > 0 {
		info.ISBN13 = dto.Identifiers.ISBN13[0]
	}
	return info
}
