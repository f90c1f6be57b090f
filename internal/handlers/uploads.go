package handlers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/hausledger/backend/internal/apperrors"
	"github.com/hausledger/backend/internal/auth"
	"github.com/hausledger/backend/internal/statement"
)

// Upload ingests a bank statement file. CSV and OFX are told apart by file
// extension; anything else is rejected before parsing.
func (h *LedgerHandler) Upload(c *gin.Context) {
	claims, err := auth.RequireAuth(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open uploaded file"})
		return
	}
	defer file.Close()

	var rows []statement.Row
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileHeader.Filename), "."))
	switch format {
	case "csv":
		rows, err = statement.ReadCSV(file, statement.DefaultColumnMap())
	case "ofx", "qfx":
		rows, err = statement.ReadOFX(file)
	default:
		err = apperrors.Validation("unsupported statement format %q: expected csv or ofx", format)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	meta, _ := json.Marshal(gin.H{"format": format, "rows": len(rows)})
	result, err := h.service.Ingest(c.Request.Context(), fileHeader.Filename, claims.UID, rows, datatypes.JSON(meta))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ListUploads returns the upload history.
func (h *LedgerHandler) ListUploads(c *gin.Context) {
	uploads, err := h.service.ListUploads(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploads": uploads})
}

// GetUpload returns one upload record.
func (h *LedgerHandler) GetUpload(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	upload, err := h.service.GetUpload(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}

// DeleteUpload removes an upload and its transactions.
func (h *LedgerHandler) DeleteUpload(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteUpload(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "upload deleted"})
}
