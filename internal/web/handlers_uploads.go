package web

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/memberdesk/internal/core"
	"github.com/JonMunkholm/memberdesk/internal/logging"
)

// PhotoField is the multipart field carrying a member photo.
const PhotoField = "photoFile"

// handlePhotoUpload stores an image and returns its public URL.
func (s *Server) handlePhotoUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Uploads.MaxFileSize+multipartOverhead)

	if err := r.ParseMultipartForm(s.cfg.Uploads.MaxFileSize); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(w, r, err)
			return
		}
		writeError(w, r, http.StatusBadRequest, core.ErrNoFile)
		return
	}
	file, header, err := r.FormFile(PhotoField)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, core.ErrNoFile)
		return
	}
	defer file.Close()

	url, err := s.photos.SavePhoto(header.Filename, file)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("photo stored", "url", url, "size", header.Size)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "url": url})
}
