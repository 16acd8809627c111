package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/GongoraLeo/spherework-sub000/internal/models"
)

type AuthorHandler struct {
	DB *gorm.DB
}

func (h *AuthorHandler) GetAuthors(c echo.Context) error {
	var authors []models.Author
	if err := h.DB.Order("name ASC").Find(&authors).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, authors)
}

func (h *AuthorHandler) GetAuthor(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	var author models.Author
	if err := h.DB.First(&author, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "author not found")
	}
	return c.JSON(http.StatusOK, author)
}

func (h *AuthorHandler) CreateAuthor(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
		Bio  string `json:"bio"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name required")
	}

	author := models.Author{Name: req.Name, Bio: req.Bio}
	if err := h.DB.Create(&author).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, author)
}

func (h *AuthorHandler) PatchAuthor(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var req struct {
		Name string `json:"name"`
		Bio  string `json:"bio"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var author models.Author
	if err := h.DB.First(&author, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "author not found")
	}

	author.Name = req.Name
	author.Bio = req.Bio
	if err := h.DB.Save(&author).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, author)
}

func (h *AuthorHandler) DeleteAuthor(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if err := h.DB.Delete(&models.Author{}, id).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusNoContent)
}
