package handler

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/permitology/permit-system/internal/core/domain"
	"github.com/permitology/permit-system/internal/core/ports"
)

// DocumentHandler handles document attachment requests. The actual blob lives
// in the external document store; only the opaque reference passes through.
type DocumentHandler struct {
	service ports.DocumentService
}

func NewDocumentHandler(service ports.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// Upload handles POST /v1/cases/:id/documents.
//
// @Summary      Attach a document to a case
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Case ID"
// @Param        body  body      uploadDocumentRequest  true  "Document purpose, blob reference, and notes"
// @Success      201   {object}  actionResponse
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/cases/{id}/documents [post]
func (h *DocumentHandler) Upload(c echo.Context) error {
	email, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req uploadDocumentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	a, err := h.service.Upload(c.Request().Context(), ports.UploadDocumentInput{
		CaseID:      c.Param("id"),
		Purpose:     domain.Purpose(req.Purpose),
		ActorEmail:  email,
		DocumentRef: req.DocumentRef,
		Notes:       req.Notes,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toActionResponse(a))
}

// Get handles GET /v1/cases/:id/documents/:purpose — the latest upload for the
// purpose, with its blob retrieval path.
//
// @Summary      Get the latest document for a purpose
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Case ID"
// @Param        purpose  path      string  true  "Document purpose (URL-escaped)"
// @Success      200      {object}  documentResponse
// @Failure      404      {object}  map[string]string
// @Router       /v1/cases/{id}/documents/{purpose} [get]
func (h *DocumentHandler) Get(c echo.Context) error {
	raw := c.Param("purpose")
	unescaped, err := url.PathUnescape(raw)
	if err != nil {
		unescaped = raw
	}
	purpose := domain.Purpose(unescaped)

	a, err := h.service.GetDocument(c.Request().Context(), c.Param("id"), purpose)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, documentResponse{
		actionResponse: toActionResponse(a),
		DownloadURL:    a.DownloadURL(string(purpose)),
	})
}
