package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	authmw "github.com/GongoraLeo/spherework-sub000/internal/middleware/auth"
	"github.com/GongoraLeo/spherework-sub000/internal/models"
)

type ReviewHandler struct {
	DB *gorm.DB
}

func (h *ReviewHandler) GetReviews(c echo.Context) error {
	bookID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var reviews []models.Review
	if err := h.DB.Where("book_id = ?", bookID).Order("created_at DESC").Find(&reviews).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) CreateReview(c echo.Context) error {
	p, ok := authmw.Principal(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	bookID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Body == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "body required")
	}

	var book models.Book
	if err := h.DB.First(&book, bookID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "book not found")
	}

	review := models.Review{
		BookID: uint(bookID),
		UserID: p.ID,
		Body:   req.Body,
	}
	if err := h.DB.Create(&review).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, review)
}

// DeleteReview allows the review's author or an administrator.
func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	p, ok := authmw.Principal(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var review models.Review
	if err := h.DB.First(&review, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "review not found")
	}
	if review.UserID != p.ID && !p.IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "not your review")
	}

	if err := h.DB.Delete(&review).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
