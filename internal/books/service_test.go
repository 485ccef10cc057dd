package books

import (
	"context"
	"errors"
	"testing"

	"library-platform/internal/openlibrary"
)

type memRepo struct {
	byID   map[int64]Book
	nextID int64
}

func newMemRepo() *memRepo {
	return &memRepo{byID: map[int64]Book{}}
}

func (m *memRepo) List(ctx context.Context) ([]Book, error) {
	out := make([]Book, 0, len(m.byID))
	for _, b := range m.byID {
		out = append(out, b)
	}
	return out, nil
}

func (m *memRepo) Get(ctx context.Context, id int64) (Book, error) {
	b, ok := m.byID[id]
	if !ok {
		return Book{}, ErrNotFound
	}
	return b, nil
}

func (m *memRepo) Create(ctx context.Context, b Book) (Book, error) {
	m.nextID++
	b.ID = m.nextID
	m.byID[b.ID] = b
	return b, nil
}

func (m *memRepo) Update(ctx context.Context, b Book) (Book, error) {
	cur, ok := m.byID[b.ID]
	if !ok {
		return Book{}, ErrNotFound
	}
	cur.Title, cur.Author, cur.PublicationYear = b.Title, b.Author, b.PublicationYear
	m.byID[b.ID] = cur
	return cur, nil
}

func (m *memRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.byID)), nil
}

type fakeLookup struct {
	info openlibrary.BookInfo
	err  error
}

func (f fakeLookup) BookByISBN(ctx context.Context, isbn string) (openlibrary.BookInfo, error) {
	return f.info, f.err
}

func TestCreate_ValidatesAndStores(t *testing.T) {
	svc := NewService(newMemRepo(), fakeLookup{})
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateBookRequest{Title: "", Author: "A"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}

	b, err := svc.Create(ctx, CreateBookRequest{Title: "Catch-22", Author: "Joseph Heller"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.ID == 0 || !b.Available {
		t.Fatalf("unexpected book %+v", b)
	}
}

func TestUpdate_UnknownBook(t *testing.T) {
	svc := NewService(newMemRepo(), fakeLookup{})
	_, err := svc.Update(context.Background(), 99, CreateBookRequest{Title: "T", Author: "A"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete_UnknownBook(t *testing.T) {
	svc := NewService(newMemRepo(), fakeLookup{})
	if err := svc.Delete(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateFromISBN_MapsLookupResult(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, fakeLookup{info: openlibrary.BookInfo{
		Title:       "Fantastic Mr Fox",
		Authors:     []string{"Roald Dahl"},
		PublishDate: "October 1, 1988",
	}})

	b, err := svc.CreateFromISBN(context.Background(), "9780140328721")
	if err != nil {
		t.Fatalf("create from isbn: %v", err)
	}
	if b.Title != "Fantastic Mr Fox" || b.Author != "Roald Dahl" {
		t.Fatalf("unexpected book %+v", b)
	}
	if b.PublicationYear == nil || *b.PublicationYear != 1988 {
		t.Fatalf("unexpected year %v", b.PublicationYear)
	}
	if b.ISBN == nil || *b.ISBN != "9780140328721" {
		t.Fatalf("unexpected isbn %v", b.ISBN)
	}
}

func TestCreateFromISBN_DefaultsAuthor(t *testing.T) {
	svc := NewService(newMemRepo(), fakeLookup{info: openlibrary.BookInfo{Title: "Anon"}})

	b, err := svc.CreateFromISBN(context.Background(), "1234567890")
	if err != nil {
		t.Fatalf("create from isbn: %v", err)
	}
	if b.Author != "Unknown" {
		t.Fatalf("expected Unknown author, got %q", b.Author)
	}
	if b.PublicationYear != nil {
		t.Fatalf("expected nil year, got %v", *b.PublicationYear)
	}
}

func TestCreateFromISBN_PropagatesLookupFailure(t *testing.T) {
	svc := NewService(newMemRepo(), fakeLookup{err: openlibrary.ErrNotFound})
	_, err := svc.CreateFromISBN(context.Background(), "0000000000")
	if !errors.Is(err, openlibrary.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExtractYear(t *testing.T) {
	cases := map[string]*int{
		"1961":            intp(1961),
		"1961-01-01":      intp(1961),
		"October 1, 1988": intp(1988),
		"n.d.":            nil,
		"":                nil,
	}
	for in, want := range cases {
		got := extractYear(context.Background(), in)
		if (got == nil) != (want == nil) {
			t.Fatalf("%q: got %v want %v", in, got, want)
		}
		if got != nil && *got != *want {
			t.Fatalf("%q: got %d want %d", in, *got, *want)
		}
	}
}

func intp(v int) *int { return &v }
