package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/lmsdesk/internal/database"
	"github.com/ngenohkevin/lmsdesk/internal/hooks"
	"github.com/ngenohkevin/lmsdesk/internal/middleware"
	"github.com/ngenohkevin/lmsdesk/internal/services"
	"github.com/ngenohkevin/lmsdesk/internal/state"
)

// Dependencies is everything the HTTP surface is built from.
type Dependencies struct {
	Hooks          *hooks.Set
	Auth           services.AuthServiceInterface
	Export         services.ExportServiceInterface
	Registry       *state.Registry
	Upstream       UpstreamChecker
	Redis          *database.RedisClient // optional
	Session        middleware.SessionOptions
	AllowedOrigins []string
	Version        string
	Logger         *slog.Logger
}

// NewRouter wires middleware and routes under /api/v1.
func NewRouter(d Dependencies) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.CORS(d.AllowedOrigins...))
	r.Use(middleware.SecurityHeaders())

	rateLimiter := middleware.NewRateLimiter(nil)
	if d.Redis != nil {
		rateLimiter = middleware.NewRateLimiter(d.Redis.Client)
	}

	authMiddleware := middleware.NewAuthMiddleware(d.Auth)

	healthHandler := NewHealthHandler(d.Upstream, d.Redis, d.Version)
	authHandler := NewAuthHandler(d.Auth, d.Logger)
	catalogHandler := NewCatalogHandler(d.Hooks, d.Logger)
	preferenceHandler := NewPreferenceHandler()
	filterHandler := NewFilterHandler()
	bookHandler := NewBookHandler(d.Hooks.Books)
	userHandler := NewUserHandler(d.Hooks.Users)
	loanHandler := NewLoanHandler(d.Hooks.Loans)
	contentHandler := NewContentHandler(d.Hooks.Contents)
	exportHandler := NewExportHandler(d.Export, d.Logger)

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api/v1")
	api.GET("/ping", healthHandler.Ping)
	api.GET("/health", healthHandler.Health)

	auth := api.Group("/auth")
	auth.Use(rateLimiter.AuthLimit())
	{
		auth.POST("/login", authHandler.Login)
	}

	// Everything below runs with the caller's session state.
	sessioned := api.Group("")
	sessioned.Use(middleware.Session(d.Registry, d.Session))
	sessioned.Use(rateLimiter.APILimit())
	sessioned.Use(middleware.NoStore())

	catalog := sessioned.Group("/catalog")
	{
		catalog.GET("/books", catalogHandler.ListBooks)
		catalog.GET("/books/stream", catalogHandler.Stream)
		catalog.GET("/books/:id", catalogHandler.GetBook)
		catalog.PUT("/search", rateLimiter.SearchLimit(), catalogHandler.Search)
	}
	sessioned.GET("/contents/published", catalogHandler.PublishedContents)

	preferences := sessioned.Group("/preferences")
	{
		preferences.GET("/theme", preferenceHandler.GetTheme)
		preferences.PUT("/theme", preferenceHandler.SetTheme)
		preferences.POST("/theme/toggle", preferenceHandler.ToggleTheme)
	}
	sessioned.GET("/notifications", preferenceHandler.GetNotification)
	sessioned.DELETE("/notifications", preferenceHandler.HideNotification)

	protected := sessioned.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/auth/me", authHandler.Me)
		protected.POST("/auth/logout", authHandler.Logout)
	}

	admin := protected.Group("/admin")
	admin.Use(authMiddleware.RequireAdmin())
	admin.Use(middleware.Audit(d.Logger))

	books := admin.Group("/books")
	{
		books.GET("", bookHandler.ListBooks)
		books.POST("", bookHandler.Create)
		books.GET("/:id", bookHandler.Get)
		books.PUT("/:id", bookHandler.Update)
		books.DELETE("/:id", bookHandler.Delete)
	}

	users := admin.Group("/users")
	{
		users.GET("", userHandler.ListUsers)
		users.GET("/count", userHandler.CountUsers)
		users.POST("", userHandler.Create)
		users.GET("/:id", userHandler.Get)
		users.PUT("/:id", userHandler.Update)
		users.DELETE("/:id", userHandler.Delete)
		users.PATCH("/:id/active", userHandler.ToggleActive)
	}

	loans := admin.Group("/loans")
	{
		loans.GET("", loanHandler.ListLoans)
		loans.GET("/count", loanHandler.CountLoans)
		loans.POST("", loanHandler.Create)
		loans.GET("/:id", loanHandler.Get)
		loans.DELETE("/:id", loanHandler.Delete)
		loans.PATCH("/:id/return", loanHandler.ReturnLoan)
	}

	contents := admin.Group("/contents")
	{
		contents.GET("", contentHandler.ListContents)
		contents.POST("", contentHandler.Create)
		contents.GET("/:id", contentHandler.Get)
		contents.PUT("/:id", contentHandler.Update)
		contents.DELETE("/:id", contentHandler.Delete)
	}
	admin.POST("/media", contentHandler.UploadMedia)

	filters := admin.Group("/filters")
	{
		filters.GET("/:feature", filterHandler.GetFilters)
		filters.PATCH("/:feature", filterHandler.UpdateFilters)
		filters.POST("/:feature/reset", filterHandler.ResetFilters)
	}

	admin.GET("/export/:resource", exportHandler.Export)

	return r
}
