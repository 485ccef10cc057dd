package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"library-platform/internal/books"
	"library-platform/internal/openlibrary"
	"library-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

func (h Handlers) ListBooks(c *gin.Context) {
	out, err := h.Books.List(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("list books failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	if out == nil {
		out = []books.Book{}
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) GetBook(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}
	b, err := h.Books.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, books.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		logger.FromGin(c).Error("get book failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h Handlers) CreateBook(c *gin.Context) {
	var req books.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	b, err := h.Books.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, books.ErrInvalidArgument) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "title and author required"})
			return
		}
		logger.FromGin(c).Error("create book failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h Handlers) UpdateBook(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}
	var req books.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	b, err := h.Books.Update(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, books.ErrInvalidArgument):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "title and author required"})
		case errors.Is(err, books.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "book not found"})
		default:
			logger.FromGin(c).Error("update book failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		}
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h Handlers) DeleteBook(c *gin.Context) {
	id, ok := bookID(c)
	if !ok {
		return
	}
	if err := h.Books.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, books.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		logger.FromGin(c).Error("delete book failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

// BookInfoByISBN proxies an Open Library lookup without storing anything.
func (h Handlers) BookInfoByISBN(c *gin.Context) {
	isbn := c.Param("isbn")
	info, err := h.Books.InfoByISBN(c.Request.Context(), isbn)
	if err != nil {
		if errors.Is(err, openlibrary.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		logger.FromGin(c).Error("isbn lookup failed", "isbn", isbn, "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, info)
}

// CreateBookFromISBN looks up an ISBN and stores the resulting entry.
func (h Handlers) CreateBookFromISBN(c *gin.Context) {
	isbn := c.Param("isbn")
	b, err := h.Books.CreateFromISBN(c.Request.Context(), isbn)
	if err != nil {
		if errors.Is(err, openlibrary.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		logger.FromGin(c).Error("create from isbn failed", "isbn", isbn, "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, b)
}

func bookID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid book id"})
		return 0, false
	}
	return id, true
}
