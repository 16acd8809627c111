package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/GongoraLeo/spherework-sub000/internal/handlers"
	authmw "github.com/GongoraLeo/spherework-sub000/internal/middleware/auth"
)

type Deps struct {
	AuthHandler      *handlers.AuthHandler
	BookHandler      *handlers.BookHandler
	AuthorHandler    *handlers.AuthorHandler
	PublisherHandler *handlers.PublisherHandler
	ReviewHandler    *handlers.ReviewHandler
	SearchHandler    *handlers.SearchHandler
	CartHandler      *CartHTTP
	OrderHandler     *OrderHTTP
	AuthMW           *authmw.Middleware
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/refresh", d.AuthHandler.Refresh)
	v1.POST("/logout", d.AuthHandler.LogOut)

	// Public catalog browsing, no auth.
	v1.GET("/books", d.BookHandler.GetBooks)
	v1.GET("/books/:id", d.BookHandler.GetBook)
	v1.GET("/books/:id/reviews", d.ReviewHandler.GetReviews)
	v1.GET("/authors", d.AuthorHandler.GetAuthors)
	v1.GET("/authors/:id", d.AuthorHandler.GetAuthor)
	v1.GET("/publishers", d.PublisherHandler.GetPublishers)
	v1.GET("/publishers/:id", d.PublisherHandler.GetPublisher)
	v1.GET("/search", d.SearchHandler.Search)

	reviews := v1.Group("", d.AuthMW.RequireLogin)
	reviews.POST("/books/:id/reviews", d.ReviewHandler.CreateReview)
	reviews.DELETE("/reviews/:id", d.ReviewHandler.DeleteReview)

	cart := v1.Group("/cart", d.AuthMW.RequireLogin)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddItem)
	cart.PATCH("/lines/:id", d.CartHandler.UpdateQuantity)
	cart.DELETE("/lines/:id", d.CartHandler.RemoveItem)
	cart.POST("/checkout", d.OrderHandler.Checkout)

	orders := v1.Group("/orders", d.AuthMW.RequireLogin)
	orders.GET("", d.OrderHandler.History)
	orders.GET("/:id", d.OrderHandler.ShowReceipt)

	admin := v1.Group("/admin", d.AuthMW.RequireAdmin)
	admin.POST("/books", d.BookHandler.CreateBook)
	admin.PATCH("/books/:id", d.BookHandler.PatchBook)
	admin.DELETE("/books/:id", d.BookHandler.DeleteBook)
	admin.POST("/authors", d.AuthorHandler.CreateAuthor)
	admin.PATCH("/authors/:id", d.AuthorHandler.PatchAuthor)
	admin.DELETE("/authors/:id", d.AuthorHandler.DeleteAuthor)
	admin.POST("/publishers", d.PublisherHandler.CreatePublisher)
	admin.PATCH("/publishers/:id", d.PublisherHandler.PatchPublisher)
	admin.DELETE("/publishers/:id", d.PublisherHandler.DeletePublisher)
	admin.PATCH("/orders/:id/status", d.OrderHandler.AdminSetStatus)
	admin.DELETE("/orders/:id", d.OrderHandler.AdminDeleteOrder)
}
