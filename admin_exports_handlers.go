package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (a *App) adminExportsHandler(c *gin.Context) {
	exports, err := a.adminListExportBatches(c.Request.Context())
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, exports)
}

func (a *App) adminGenerateExportHandler(c *gin.Context) {
	session, err := getOperatorSession(c)
	if err != nil {
		writeAPIError(c, &apiError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "Operator session required"})
		return
	}

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Message: "Invalid payload"})
		return
	}

	batch, err := a.adminGenerateExportBatch(c.Request.Context(), body, session)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func (a *App) adminExportDownloadHandler(c *gin.Context) {
	exportID := parseIDParam(c)
	if exportID == 0 {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_id", Message: "Invalid export ID"})
		return
	}

	format := strings.TrimSpace(c.Query("format"))
	if format != "pdf" {
		format = "csv"
	}

	contentType, body, fileName, err := a.getExportAsset(c.Request.Context(), exportID, format)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	_, _ = c.Writer.Write(body)
}
