package web

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/erazemk/poshledger/internal/ledger"
	"github.com/erazemk/poshledger/internal/store"
)

// exportFilename is the name offered for downloaded exports.
const exportFilename = "inventory_export.csv"

type importPage struct {
	PageData
	Filename string
	Report   *ledger.ImportReport
}

// ImportPage handles GET /import.
func (s *Server) ImportPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "import.html", &importPage{PageData: s.page(r, "Import CSV")})
}

// ImportSubmit handles POST /import.
func (s *Server) ImportSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	data := &importPage{PageData: s.page(r, "Import CSV")}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		data.Error = "The file is too large or the upload was incomplete."
		s.Templates.RenderStatus(w, http.StatusBadRequest, "import.html", data)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		data.Error = "Choose a CSV file to import."
		s.Templates.RenderStatus(w, http.StatusBadRequest, "import.html", data)
		return
	}
	defer file.Close()
	data.Filename = header.Filename

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		data.Error = "Only .csv files can be imported."
		s.Templates.RenderStatus(w, http.StatusBadRequest, "import.html", data)
		return
	}

	report, err := ledger.Import(r.Context(), claims.Identity(), file, store.ItemInserter(s.DB))
	if err != nil {
		slog.Error("import failed", "user", claims.Username, "error", err)
		data.Error = "The file could not be read: " + err.Error()
		s.Templates.RenderStatus(w, http.StatusBadRequest, "import.html", data)
		return
	}

	slog.Info("items imported", "user", claims.Username, "file", header.Filename,
		"imported", report.Imported, "failed", len(report.Failed))
	data.Report = report
	s.Templates.Render(w, "import.html", data)
}

// ExportDownload handles GET /export.
func (s *Server) ExportDownload(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	q := r.URL.Query()
	items, err := store.ListItems(r.Context(), s.DB, claims.UserID, store.ParseSort(q.Get("sort"), q.Get("dir")))
	if err != nil {
		slog.Error("failed to list items", "error", err)
		http.Error(w, "failed to export", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	if err := ledger.WriteCSV(w, items); err != nil {
		slog.Error("failed to write export", "error", err)
		return
	}
	slog.Info("items exported", "user", claims.Username, "count", len(items))
}
