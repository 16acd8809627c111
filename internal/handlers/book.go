package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/GongoraLeo/spherework-sub000/internal/models"
	"github.com/GongoraLeo/spherework-sub000/internal/mykafka"
	"github.com/GongoraLeo/spherework-sub000/internal/util"
)

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func errorResponse(c echo.Context, code int, err error) error {
	return c.JSON(code, Response{
		Status:  "error",
		Message: err.Error(),
	})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

type BookHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
}

func (h *BookHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "book_events", fmt.Sprint(event["bookID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// indexBook mirrors the row into the search index; failures are
// logged, not surfaced, because the row is the source of truth.
func (h *BookHandler) indexBook(c echo.Context, b *models.Book) {
	if h.ES == nil {
		return
	}
	data, err := json.Marshal(b)
	if err != nil {
		c.Logger().Errorf("ES marshal error: %v", err)
		return
	}
	res, err := h.ES.Index(
		h.Index,
		bytes.NewReader(data),
		h.ES.Index.WithDocumentID(strconv.Itoa(int(b.ID))),
		h.ES.Index.WithContext(c.Request().Context()),
	)
	if err != nil {
		c.Logger().Errorf("ES index error: %v", err)
		return
	}
	res.Body.Close()
}

func (h *BookHandler) deindexBook(c echo.Context, id int) {
	if h.ES == nil {
		return
	}
	res, err := h.ES.Delete(
		h.Index,
		strconv.Itoa(id),
		h.ES.Delete.WithContext(c.Request().Context()),
	)
	if err != nil {
		c.Logger().Errorf("ES delete error: %v", err)
		return
	}
	res.Body.Close()
}

func (h *BookHandler) GetBook(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var book models.Book
	if err := h.DB.First(&book, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "book not found")
	}
	return c.JSON(http.StatusOK, book)
}

func (h *BookHandler) GetBooks(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.Book{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var items []models.Book
	if err := h.DB.Model(&models.Book{}).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

type bookRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	AuthorID    uint    `json:"author_id"`
	PublisherID uint    `json:"publisher_id"`
}

func (h *BookHandler) CreateBook(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Title == "" || req.Price < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "title required and price must be >= 0")
	}

	book := models.Book{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		AuthorID:    req.AuthorID,
		PublisherID: req.PublisherID,
	}
	if err := h.DB.Create(&book).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.indexBook(c, &book)
	h.publish(c, map[string]any{
		"type":   "book_created",
		"bookID": book.ID,
		"title":  book.Title,
	})

	return c.JSON(http.StatusCreated, book)
}

func (h *BookHandler) PatchBook(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var book models.Book
	if err := h.DB.First(&book, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "book not found")
	}

	book.Title = req.Title
	book.Description = req.Description
	book.Price = req.Price
	book.AuthorID = req.AuthorID
	book.PublisherID = req.PublisherID

	if err := h.DB.Save(&book).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.indexBook(c, &book)
	h.publish(c, map[string]any{
		"type":   "book_updated",
		"bookID": book.ID,
		"title":  book.Title,
	})

	return c.JSON(http.StatusOK, book)
}

func (h *BookHandler) DeleteBook(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if err := h.DB.Delete(&models.Book{}, id).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	h.deindexBook(c, id)
	h.publish(c, map[string]any{
		"type":   "book_deleted",
		"bookID": id,
	})

	return c.NoContent(http.StatusNoContent)
}
