package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xyz-school/portal-api/internal/models"
	"github.com/xyz-school/portal-api/internal/service"
	appErrors "github.com/xyz-school/portal-api/pkg/errors"
	"github.com/xyz-school/portal-api/pkg/response"
)

// EbookHandler wires HTTP endpoints to the ebook service.
type EbookHandler struct {
	service *service.EbookService
}

// NewEbookHandler creates a new handler.
func NewEbookHandler(svc *service.EbookService) *EbookHandler {
	return &EbookHandler{service: svc}
}

// List godoc
// @Summary List ebooks
// @Tags Ebooks
// @Produce json
// @Param search query string false "Search title or description"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param sort_by query string false "Sort column"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /ebooks [get]
func (h *EbookHandler) List(c *gin.Context) {
	filter := models.EbookFilter{
		Search:    c.Query("search"),
		Page:      intQuery(c, "page", 1),
		PageSize:  intQuery(c, "page_size", 10),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	ebooks, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, ebooks, pagination)
}

// Get godoc
// @Summary Get ebook
// @Tags Ebooks
// @Produce json
// @Param id path int true "Ebook ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /ebooks/{id} [get]
func (h *EbookHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid ebook id"))
		return
	}

	ebook, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, ebook, nil)
}

// Create godoc
// @Summary Create ebook
// @Tags Ebooks
// @Accept json
// @Produce json
// @Param payload body service.SaveEbookRequest true "Ebook payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /ebooks [post]
func (h *EbookHandler) Create(c *gin.Context) {
	var req service.SaveEbookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid ebook payload"))
		return
	}

	ebook, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, ebook)
}

// Update godoc
// @Summary Update ebook
// @Tags Ebooks
// @Accept json
// @Produce json
// @Param id path int true "Ebook ID"
// @Param payload body service.SaveEbookRequest true "Ebook payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /ebooks/{id} [put]
func (h *EbookHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid ebook id"))
		return
	}

	var req service.SaveEbookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid ebook payload"))
		return
	}

	ebook, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, ebook, nil)
}

// Delete godoc
// @Summary Delete ebook
// @Tags Ebooks
// @Produce json
// @Param id path int true "Ebook ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /ebooks/{id} [delete]
func (h *EbookHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid ebook id"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
