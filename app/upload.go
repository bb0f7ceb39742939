package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"

	"github.com/gofrs/uuid"
)

const maxUploadBytes = 10 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// uploadImageHandler accepts a multipart form with a single "image" part,
// stores it under the given key prefix and returns the key and public URL.
func (app *application) uploadImageHandler(prefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

		err := r.ParseMultipartForm(maxUploadBytes)
		if err != nil {
			app.badRequestErrorResponse(w, r, errors.New("could not parse multipart form"))
			return
		}

		file, header, err := r.FormFile("image")
		if err != nil {
			app.badRequestErrorResponse(w, r, errors.New("missing image file"))
			return
		}
		defer file.Close()

		// Sniff the real content type rather than trusting the header.
		buf := make([]byte, 512)
		n, err := file.Read(buf)
		if err != nil && n == 0 {
			app.badRequestErrorResponse(w, r, errors.New("could not read image file"))
			return
		}

		contentType := http.DetectContentType(buf[:n])
		ext, ok := imageExtensions[contentType]
		if !ok {
			app.failedValidationErrorResponse(w, r, map[string]string{"image": fmt.Sprintf("unsupported image type %s", contentType)})
			return
		}

		if _, err := file.Seek(0, 0); err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}

		id, err := uuid.NewV4()
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}

		key := path.Join(prefix, id.String()+ext)

		err = app.blobStore.Upload(r.Context(), key, contentType, file)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}

		app.logger.Info("image uploaded", slog.String("key", key), slog.Int64("size", header.Size))

		err = app.writeJSON(w, http.StatusCreated, envelope{
			"key": key,
			"url": app.blobStore.PublicURL(key),
		}, nil)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}
	}
}
