package api

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/erazemk/poshledger/internal/ledger"
	"github.com/erazemk/poshledger/internal/store"
)

// ExportFilename is the name offered for downloaded exports.
const ExportFilename = "inventory_export.csv"

// maxImportSize caps a CSV upload request.
const maxImportSize = 10 << 20

// Export handles GET /api/items/export.
func (h *ItemsHandler) Export(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	q := r.URL.Query()
	items, err := store.ListItems(r.Context(), h.DB, claims.UserID, store.ParseSort(q.Get("sort"), q.Get("dir")))
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to export items")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFilename+`"`)
	if err := ledger.WriteCSV(w, items); err != nil {
		slog.Error("failed to write export", "error", err)
		return
	}
	slog.Info("items exported", "user", claims.Username, "count", len(items))
}

// Import handles POST /api/items/import.
func (h *ItemsHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "csv file required")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		jsonError(w, http.StatusBadRequest, "file must be a .csv")
		return
	}

	claims := GetClaims(r.Context())
	report, err := ledger.Import(r.Context(), claims.Identity(), file, store.ItemInserter(h.DB))
	if err != nil {
		slog.Error("import failed", "user", claims.Username, "error", err)
		jsonError(w, http.StatusBadRequest, "failed to read csv: "+err.Error())
		return
	}

	slog.Info("items imported", "user", claims.Username, "imported", report.Imported, "failed", len(report.Failed))
	jsonResponse(w, http.StatusOK, report)
}
