package drive

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/andresuchdata/supplychain-ai/backend-go/internal/domain"
	"github.com/andresuchdata/supplychain-ai/backend-go/internal/ingest"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	source        FileSource
	ingestService *IngestService
}

func NewHandler(source FileSource, ingestService *IngestService) *Handler {
	return &Handler{
		source:        source,
		ingestService: ingestService,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/drive/files", h.ListFiles).Methods(http.MethodGet)
	router.HandleFunc("/api/drive/files/download", h.DownloadFile).Methods(http.MethodGet)
	router.HandleFunc("/api/drive/ingest", h.IngestFile).Methods(http.MethodPost)
	router.HandleFunc("/api/drive/ingest/folder", h.IngestFolder).Methods(http.MethodPost)
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	folderID := query.Get("folderId")
	folderPath := query.Get("path")

	if folderPath != "" {
		var err error
		folderID, err = h.source.FindFolderByPath(r.Context(), folderPath)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
	}

	files, err := h.source.ListFiles(r.Context(), folderID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if files == nil {
		files = make([]*File, 0)
	}

	writeJSON(w, http.StatusOK, files)
}

func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("fileId")
	if fileID == "" {
		writeError(w, http.StatusBadRequest, errors.New("fileId parameter is required"))
		return
	}

	file, err := h.source.GetFile(r.Context(), fileID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(file.Name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))

	if err := h.source.DownloadFile(r.Context(), fileID, w); err != nil {
		// Headers may already be on the wire.
		log.Error().Err(err).Str("file_id", fileID).Msg("drive: download failed")
	}
}

func (h *Handler) IngestFile(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	fileID := query.Get("fileId")
	if fileID == "" {
		writeError(w, http.StatusBadRequest, errors.New("fileId parameter is required"))
		return
	}

	var kind domain.UploadKind
	if raw := query.Get("kind"); raw != "" {
		parsed, err := ingest.ParseKind(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		kind = parsed
	}

	result, err := h.ingestService.IngestFile(r.Context(), fileID, kind)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) IngestFolder(w http.ResponseWriter, r *http.Request) {
	folderID := r.URL.Query().Get("folderId")
	if folderID == "" {
		writeError(w, http.StatusBadRequest, errors.New("folderId parameter is required"))
		return
	}

	results, err := h.ingestService.IngestFolder(r.Context(), folderID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "files": results})
}

func statusFor(err error) int {
	var (
		missingCols *ingest.MissingColumnsError
		rowErr      *ingest.RowError
	)
	switch {
	case errors.Is(err, ErrFolderNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrKindRequired),
		errors.Is(err, ingest.ErrUnsupportedFormat),
		errors.Is(err, ingest.ErrUnknownKind),
		errors.Is(err, ingest.ErrEmptyFile),
		errors.As(err, &missingCols),
		errors.As(err, &rowErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("drive: failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
