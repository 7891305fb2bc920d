package handler

import (
	"log/slog"
	"mime/multipart"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/estate/internal/model"
	"github.com/sakif/estate/internal/upload"
)

// maxUploadMemory is how much of a multipart body net/http buffers in
// memory before spilling to temp files.
const maxUploadMemory = 8 << 20

// UploadHandler receives multipart image uploads and stores them through
// the upload.Store.
type UploadHandler struct {
	store  *upload.Store
	logger *slog.Logger
}

func NewUploadHandler(store *upload.Store, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{store: store, logger: logger}
}

// HandleAvatarUpload stores a single profile picture.
//
// HTTP: POST /api/auth/upload (protected)
// BODY: multipart form with one file part named "file"
//
// On success: {"success":true,"message":...,"filename":...,"path":...}.
// The caller folds the returned path into its avatar field via the user
// update endpoint (or the client store's local avatar mutation).
func (h *UploadHandler) HandleAvatarUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid multipart body"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "No file uploaded"})
		return
	}
	defer file.Close()

	saved, err := h.store.Save(header.Filename, header.Size, file)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("avatar uploaded", slog.String("filename", saved.Filename))

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "File uploaded successfully!",
		"filename": saved.Filename,
		"path":     saved.Path,
	})
}

// HandleListingImagesUpload stores a batch of listing images.
//
// HTTP: POST /api/listing/upload (protected)
// BODY: multipart form with up to six file parts named "images"
//
// Files in the batch are saved concurrently; if any file fails validation
// the whole batch is rejected (the client retries the batch, not a diff).
// On success: {"success":true,"message":...,"files":[{filename,path},...]}
// with files in the order they appeared in the form.
func (h *UploadHandler) HandleListingImagesUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid multipart body"})
		return
	}

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File["images"]
	}
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Please select at least one image to upload."})
		return
	}
	if len(headers) > model.MaxListingImages {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Message: "You can only upload a maximum of 6 images.",
		})
		return
	}

	// Save the batch concurrently, keeping results slot-aligned with the
	// form order so the client's image sequence is stable.
	saved := make([]*upload.SavedFile, len(headers))
	g, _ := errgroup.WithContext(r.Context())
	for i, header := range headers {
		g.Go(func() error {
			file, err := header.Open()
			if err != nil {
				return err
			}
			defer file.Close()

			s, err := h.store.Save(header.Filename, header.Size, file)
			if err != nil {
				return err
			}
			saved[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("listing images uploaded", slog.Int("count", len(saved)))

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Images uploaded successfully!",
		"files":   saved,
	})
}
