package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("book not found")

// Repository is the catalog storage contract.
type Repository interface {
	List(ctx context.Context) ([]Book, error)
	Get(ctx context.Context, id int64) (Book, error)
	Create(ctx context.Context, b Book) (Book, error)
	Update(ctx context.Context, b Book) (Book, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// PostgresRepository implements Repository over database/sql.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]Book, error) {
	const q = `
SELECT id, title, author, publication_year, isbn, available, created_at
FROM books
ORDER BY id
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.PublicationYear, &b.ISBN, &b.Available, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (Book, error) {
	const q = `
SELECT id, title, author, publication_year, isbn, available, created_at
FROM books
WHERE id = $1
`
	var b Book
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.Title, &b.Author, &b.PublicationYear, &b.ISBN, &b.Available, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) Create(ctx context.Context, b Book) (Book, error) {
	const q = `
INSERT INTO books (title, author, publication_year, isbn, available, created_at)
VALUES ($1, $2, $3, $4, $5, NOW())
RETURNING id, created_at
`
	err := r.db.QueryRowContext(ctx, q, b.Title, b.Author, b.PublicationYear, b.ISBN, b.Available).
		Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return Book{}, fmt.Errorf("create book: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) Update(ctx context.Context, b Book) (Book, error) {
	const q = `
UPDATE books
SET title = $2, author = $3, publication_year = $4
WHERE id = $1
RETURNING id, title, author, publication_year, isbn, available, created_at
`
	var out Book
	err := r.db.QueryRowContext(ctx, q, b.ID, b.Title, b.Author, b.PublicationYear).Scan(
		&out.ID, &out.Title, &out.Author, &out.PublicationYear, &out.ISBN, &out.Available, &out.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("update book: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM books WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	const q = `SELECT COUNT(*) FROM books`
	var n int64
	if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}
