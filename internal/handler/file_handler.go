/*
Package handler provides HTTP handler functions for profile photo upload, removal and lookup.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"aqimonitor/internal/pkg/auth/jwt"
	"aqimonitor/internal/pkg/errs"
	"aqimonitor/internal/pkg/logx"
	"aqimonitor/internal/pkg/req"
	"aqimonitor/internal/pkg/resp"
)

const photoFormField = "photo"

// HandleUploadPhoto stores the multipart "photo" file as the caller's profile photo.
func HandleUploadPhoto(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.IdentityFromContext(r.Context())
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		if customErr := req.SetupMultipart(w, r, req.MaxUploadSize); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		if claimed := r.FormValue("username"); claimed != "" && claimed != identity.Username {
			logx.Warn("upload_photo: username field does not match token", "token_username", identity.Username)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		file, header, err := r.FormFile(photoFormField)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrPhotoMissing))
			return
		}
		defer file.Close()

		result, customErr := deps.Profiles.Upload(r.Context(), identity.Username, header.Filename, file)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]string{
			"message":  "Photo uploaded successfully",
			"imageUrl": result.ImageURL,
			"filename": result.Filename,
		})
	}
}

// HandleRemovePhoto clears the caller's profile photo.
func HandleRemovePhoto(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.IdentityFromContext(r.Context())
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		if customErr := deps.Profiles.Remove(r.Context(), identity.Username); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]string{
			"message": "Photo removed successfully",
		})
	}
}

// HandleGetProfilePhoto returns {"imageUrl": url|null} for the named account.
func HandleGetProfilePhoto(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := chi.URLParam(r, "username")

		resp.RespondSuccess(w, r, map[string]*string{
			"imageUrl": deps.Profiles.Photo(r.Context(), username),
		})
	}
}
