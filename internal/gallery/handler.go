package gallery

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/gallery/service/internal/catalog"
	"github.com/gallery/service/internal/image"
	"github.com/gallery/service/internal/response"
	"github.com/gallery/service/internal/storage"
)

// FormField is the multipart field carrying the image.
const FormField = "image"

// multipartOverhead leaves room for boundaries and part headers on top of
// the image itself.
const multipartOverhead = 64 << 10

// Handler holds HTTP handlers for the gallery endpoints.
type Handler struct {
	svc *Service
	log *zap.Logger
}

// NewHandler creates a new gallery Handler.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log.Named("http")}
}

// UploadResponse is returned for an accepted upload.
type UploadResponse struct {
	Key      string `json:"key"`
	Filename string `json:"filename"`
}

// ListResponse is the gallery listing.
type ListResponse struct {
	Images []catalog.Entry `json:"images"`
}

// Upload godoc
//
//	@Summary		Upload an image
//	@Description	Stores a JPEG or PNG image (max 10 MB) under a new unique key.
//	@Tags			images
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image	formData	file	true	"JPEG or PNG image"
//	@Success		201		{object}	response.Envelope{data=UploadResponse}
//	@Failure		400		{object}	response.Envelope
//	@Failure		413		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/images [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+multipartOverhead)

	file, header, err := r.FormFile(FormField)
	if err != nil {
		var maxBytes *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytes):
			h.respondUpload(w, Result{Outcome: RejectedTooLarge, Err: err}, "")
		case errors.Is(err, http.ErrMissingFile):
			response.BadRequest(w, "No file selected")
		default:
			h.log.Info("bad upload form", zap.Error(err))
			response.BadRequest(w, "No file selected")
		}
		return
	}
	defer file.Close()

	if header.Filename == "" {
		response.BadRequest(w, "No file selected")
		return
	}

	res := h.svc.HandleUpload(r.Context(), UploadRequest{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
		Size:        header.Size,
	})
	h.respondUpload(w, res, header.Filename)
}

// respondUpload is the single place upload outcomes become user-facing text.
func (h *Handler) respondUpload(w http.ResponseWriter, res Result, filename string) {
	switch res.Outcome {
	case Accepted:
		response.Created(w, UploadResponse{Key: res.Key, Filename: filename},
			fmt.Sprintf("Image %q uploaded successfully!", filename))
	case RejectedInvalidType:
		var verr *image.ValidationError
		if errors.As(res.Err, &verr) && verr.Reason == image.ReasonMIME {
			response.BadRequest(w, "Invalid file format. Only JPEG and PNG images are allowed.")
			return
		}
		if verr != nil && verr.Reason == image.ReasonMissingName {
			response.BadRequest(w, "No file selected")
			return
		}
		response.BadRequest(w, "Invalid file type. Only JPG, JPEG, and PNG files are allowed.")
	case RejectedTooLarge:
		response.TooLarge(w, "File is too large. Maximum file size is 10 MB.")
	case StoreFailure:
		response.BadGateway(w, "Error uploading to storage. Please try again.")
	default:
		response.Error(w, http.StatusInternalServerError, "Error uploading file. Please try again.")
	}
}

// List godoc
//
//	@Summary		List images
//	@Description	Returns every stored image, newest first, with a link valid for one hour.
//	@Description	When the store cannot be reached the list is empty and a warning is set.
//	@Tags			images
//	@Produce		json
//	@Success		200	{object}	response.Envelope{data=ListResponse}
//	@Router			/images [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	l := h.svc.HandleListing(r.Context())

	var warnings []string
	if l.Err != nil {
		if errors.Is(l.Err, storage.ErrUnavailable) {
			warnings = append(warnings, "Error loading images from storage")
		} else {
			warnings = append(warnings, "Error loading images")
		}
	}
	response.OK(w, ListResponse{Images: l.Entries}, warnings...)
}
