package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"stand-catalog-service/internal/importer"
)

const (
	importFormField      = "file"
	templateFilename     = "catalog-import-template.xlsx"
	xlsxContentType      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	multipartMemoryLimit = 8 << 20
)

// ImportCatalog accepts a multipart upload (field "file", .xlsx, .xls or .csv) and
// imports it. The run is detached from the request context: once the file is
// read, a client disconnect does not abort the remaining rows.
func (h *HTTPHandler) ImportCatalog(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondWithError(w, http.StatusRequestEntityTooLarge,
				"Upload exceeds the limit of "+strconv.FormatInt(h.maxUploadBytes, 10)+" bytes")
			return
		}
		h.respondWithError(w, http.StatusBadRequest, "Invalid multipart upload: "+err.Error())
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(importFormField)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, `Missing spreadsheet in form field "file"`)
		return
	}
	defer file.Close()

	start := time.Now()
	outcome, err := h.importer.Import(context.WithoutCancel(r.Context()), header.Filename, file)
	switch {
	case errors.Is(err, importer.ErrUnsupportedFormat):
		h.respondWithError(w, http.StatusBadRequest, "Unsupported file type: upload an .xlsx, .xls or .csv file")
		return
	case errors.Is(err, importer.ErrMalformedFile):
		h.respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		h.logger.Error("catalog import failed", zap.String("filename", header.Filename), zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to import catalog")
		return
	}

	h.logger.Info("catalog imported",
		zap.String("filename", header.Filename),
		zap.Int64("size", header.Size),
		zap.Int("total", outcome.Total),
		zap.Int("imported", outcome.Imported),
		zap.Int("errors", outcome.Errors),
		zap.Int("skipped", outcome.Skipped),
		zap.Duration("elapsed", time.Since(start)),
	)
	h.respondWithJSON(w, http.StatusOK, outcome)
}

// DownloadTemplate serves an empty workbook with the expected columns.
func (h *HTTPHandler) DownloadTemplate(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := importer.WriteTemplate(&buf); err != nil {
		h.logger.Error("generating import template failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to generate template")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+templateFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("writing import template failed", zap.Error(err))
	}
}
