package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/GongoraLeo/spherework-sub000/internal/models"
)

type PublisherHandler struct {
	DB *gorm.DB
}

func (h *PublisherHandler) GetPublishers(c echo.Context) error {
	var publishers []models.Publisher
	if err := h.DB.Order("name ASC").Find(&publishers).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, publishers)
}

func (h *PublisherHandler) GetPublisher(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	var publisher models.Publisher
	if err := h.DB.First(&publisher, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "publisher not found")
	}
	return c.JSON(http.StatusOK, publisher)
}

func (h *PublisherHandler) CreatePublisher(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
		City string `json:"city"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name required")
	}

	publisher := models.Publisher{Name: req.Name, City: req.City}
	if err := h.DB.Create(&publisher).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, publisher)
}

func (h *PublisherHandler) PatchPublisher(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var req struct {
		Name string `json:"name"`
		City string `json:"city"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var publisher models.Publisher
	if err := h.DB.First(&publisher, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "publisher not found")
	}

	publisher.Name = req.Name
	publisher.City = req.City
	if err := h.DB.Save(&publisher).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, publisher)
}

func (h *PublisherHandler) DeletePublisher(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if err := h.DB.Delete(&models.Publisher{}, id).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusNoContent)
}
