package books

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"library-platform/internal/monitoring"
	"library-platform/internal/openlibrary"
	"library-platform/pkg/logger"
)

var ErrInvalidArgument = errors.New("invalid argument")

// MetadataClient looks up book metadata for an ISBN.
type MetadataClient interface {
	BookByISBN(ctx context.Context, isbn string) (openlibrary.BookInfo, error)
}

// Service provides catalog operations.
type Service struct {
	repo   Repository
	lookup MetadataClient
}

func NewService(repo Repository, lookup MetadataClient) *Service {
	return &Service{repo: repo, lookup: lookup}
}

func (s *Service) List(ctx context.Context) ([]Book, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Book, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateBookRequest) (Book, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Author) == "" {
		return Book{}, ErrInvalidArgument
	}

	b, err := s.repo.Create(ctx, Book{
		Title:           req.Title,
		Author:          req.Author,
		PublicationYear: req.PublicationYear,
		Available:       true,
	})
	if err != nil {
		return Book{}, err
	}
	monitoring.BooksCreated.Inc()
	return b, nil
}

func (s *Service) Update(ctx context.Context, id int64, req CreateBookRequest) (Book, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Author) == "" {
		return Book{}, ErrInvalidArgument
	}
	return s.repo.Update(ctx, Book{
		ID:              id,
		Title:           req.Title,
		Author:          req.Author,
		PublicationYear: req.PublicationYear,
	})
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// InfoByISBN fetches metadata for an ISBN without touching the catalog.
func (s *Service) InfoByISBN(ctx context.Context, isbn string) (openlibrary.BookInfo, error) {
	return s.lookup.BookByISBN(ctx, isbn)
}

// CreateFromISBN looks up an ISBN and stores a catalog entry from the
// result. Author falls back to "Unknown" when the lookup has none; the
// publication year is taken from the leading digits of the publish date.
func (s *Service) CreateFromISBN(ctx context.Context, isbn string) (Book, error) {
	info, err := s.lookup.BookByISBN(ctx, isbn)
	if err != nil {
		return Book{}, err
	}

	author := "Unknown"
	if len(info.Authors) > 0 {
		author = info.Authors[0]
	}

	b := Book{
		Title:           info.Title,
		Author:          author,
		PublicationYear: extractYear(ctx, info.PublishDate),
		ISBN:            &isbn,
		Available:       true,
	}

	created, err := s.repo.Create(ctx, b)
	if err != nil {
		return Book{}, err
	}
	monitoring.BooksCreated.Inc()
	return created, nil
}

// extractYear pulls a 4-digit year out of publish dates like "1961",
// "1961-01-01" or "October 1, 1988". Nil when no year is recognizable.
func extractYear(ctx context.Context, publishDate string) *int {
	for _, f := range strings.FieldsFunc(publishDate, func(r rune) bool {
		return r < '0' || r > '9'
	}) {
		if len(f) == 4 {
			if y, err := strconv.Atoi(f); err == nil {
				return &y
			}
		}
	}
	if publishDate != "" {
		logger.From(ctx).Debug("no year in publish date", "publish_date", publishDate)
	}
	return nil
}
