package main

import (
	"database/sql"

	"library-platform/internal/auth"
	"library-platform/internal/books"
	"library-platform/internal/httpapi"
	"library-platform/internal/monitoring"
	"library-platform/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, signer *auth.Signer, db *sql.DB, bookSvc *books.Service) {
	// public
	r.GET("/healthz", monitoring.HealthHandler(db, bookSvc))
	r.GET("/metrics", monitoring.MetricsHandler())

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/logout", h.Logout)
	}

	api := r.Group("/api")
	{
		api.POST("/users/register", h.Register)

		// Browsing the catalog needs no account.
		api.GET("/books", h.ListBooks)
		api.GET("/books/:id", h.GetBook)
		api.GET("/books/isbn/:isbn/info", h.BookInfoByISBN)

		// Catalog mutation is staff-only.
		staff := api.Group("/books")
		staff.Use(auth.RequireAccessToken(signer))
		staff.Use(rbac.RequireAnyAuthority(rbac.AuthorityLibrarian, rbac.AuthorityAdmin))
		{
			staff.POST("", h.CreateBook)
			staff.PUT("/:id", h.UpdateBook)
			staff.DELETE("/:id", h.DeleteBook)
			staff.POST("/isbn/:isbn", h.CreateBookFromISBN)
		}
	}
}
