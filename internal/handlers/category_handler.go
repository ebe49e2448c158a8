package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"moneybook/internal/services"
	"moneybook/internal/validator"
)

// CategoryHandler handles category-related requests
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auditService: auditService}
}

// ListCategories returns every category
// @Summary     List categories
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.Category "Categories"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categories, err := h.categoryService.GetCategories(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetCategory returns one category
// @Summary     Get category
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} models.Category "Category"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategoryByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// CreateCategory creates a category
// @Summary     Create category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body validator.CategoryInput true "Category details"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid parent"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	h.saveCategory(c, "", http.StatusCreated)
}

// UpdateCategory rewrites a category
// @Summary     Update category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                  true "Category ID"
// @Param       request body validator.CategoryInput true "Category details"
// @Success     200 {object} models.Category "Category updated"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Router      /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	h.saveCategory(c, c.Param("id"), http.StatusOK)
}

func (h *CategoryHandler) saveCategory(c *gin.Context, id string, status int) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var in validator.CategoryInput
	if !bindJSON(c, &in) {
		return
	}
	if id != "" {
		in.ID = id
	}
	if fields := validator.ValidateCategory(in); len(fields) > 0 {
		respondValidation(c, fields)
		return
	}

	category, err := h.categoryService.UpsertCategory(c.Request.Context(), userID, in.ToCategory())
	if err != nil {
		respondWithError(c, err)
		return
	}

	action := "CREATE_CATEGORY"
	if id != "" {
		action = "UPDATE_CATEGORY"
	}
	h.auditService.Log(userID, action, "category", category.ID, c.ClientIP(),
		map[string]any{"name": category.Name, "type": string(category.Type)})

	c.JSON(status, gin.H{"category": category})
}

// DeleteCategory deletes a category unless transactions still reference it
// @Summary     Delete category
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} DeleteResponse "deleted or blocked"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id := c.Param("id")
	result, err := h.categoryService.DeleteCategory(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if result != services.DeleteResultBlocked {
		h.auditService.Log(userID, "DELETE_CATEGORY", "category", id, c.ClientIP(), nil)
	}

	c.JSON(http.StatusOK, DeleteResponse{Result: string(result)})
}
