package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/JonMunkholm/memberdesk/internal/core"
	"github.com/JonMunkholm/memberdesk/internal/spreadsheet"
)

// handleMembersImport runs a spreadsheet import. The file comes in the
// multipart field "file"; "mode" may be a form or query value. Pre-flight
// rejections are 400; a completed batch is 200 even when rows failed.
func (s *Server) handleMembersImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	data, err := readFormFile(r, "file", maxSize)
	if err != nil {
		respondError(w, r, err)
		return
	}

	mode := core.ParseImportMode(r.FormValue("mode"))
	summary, err := s.service.ImportFile(r.Context(), data, mode)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleImportTemplate serves a blank import workbook.
func (s *Server) handleImportTemplate(w http.ResponseWriter, r *http.Request) {
	data, err := spreadsheet.Template()
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+spreadsheet.TemplateFileName+`"`)
	_, _ = w.Write(data)
}

// multipartOverhead leaves room for boundaries and other form fields.
const multipartOverhead = 1 << 20

// readFormFile returns the bytes of a multipart file field. A request with
// no such field yields nil data and no error so the service can report it.
func readFormFile(r *http.Request, field string, maxSize int64) ([]byte, error) {
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, err
		}
		return nil, nil
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil
	}
	defer file.Close()

	if header.Size > maxSize {
		return nil, &http.MaxBytesError{Limit: maxSize}
	}
	return io.ReadAll(io.LimitReader(file, maxSize+1))
}
