package main

import (
	"errors"
	"net/http"

	"pitchfinder/internal/store"
)

type userKey string

const userCtx userKey = "user"

func getUserFromContext(r *http.Request) *store.User {
	if user, ok := r.Context().Value(userCtx).(*store.User); ok {
		return user
	}
	return nil
}

// getCurrentUserHandler godoc
//
//	@Summary		Get current user
//	@Description	Returns the authenticated user's profile
//	@Tags			users
//	@Produce		json
//	@Success		200	{object}	store.User
//	@Failure		401	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/me [get]
func (app *application) getCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	if err := app.jsonResponse(w, http.StatusOK, user); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateUserPayload struct {
	Name                 *string  `json:"name,omitempty" validate:"omitempty,max=100"`
	NotificationRadiusKm *float64 `json:"notification_radius_km,omitempty" validate:"omitempty,gte=0,lte=500"`
	Latitude             *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude            *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

// updateUserHandler godoc
//
//	@Summary		Update current user
//	@Description	Updates profile fields, including the saved home location and the radius for nearby-game notifications
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		UpdateUserPayload	true	"Fields to update"
//	@Success		200		{object}	store.User
//	@Failure		400		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users [put]
func (app *application) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload UpdateUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	// A location update must move both coordinates together.
	if (payload.Latitude == nil) != (payload.Longitude == nil) {
		app.badRequestResponse(w, r, errors.New("latitude and longitude must be provided together"))
		return
	}

	updates := map[string]interface{}{}
	if payload.Name != nil {
		updates["name"] = *payload.Name
	}
	if payload.NotificationRadiusKm != nil {
		updates["notification_radius_km"] = *payload.NotificationRadiusKm
	}
	if payload.Latitude != nil {
		updates["latitude"] = *payload.Latitude
		updates["longitude"] = *payload.Longitude
	}

	if len(updates) == 0 {
		app.badRequestResponse(w, r, errors.New("no fields to update"))
		return
	}

	if err := app.store.Users.UpdateUser(r.Context(), user.ID, updates); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	updated, err := app.store.Users.GetByID(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, updated); err != nil {
		app.internalServerError(w, r, err)
	}
}

// uploadProfilePictureHandler godoc
//
//	@Summary		Upload profile picture
//	@Description	Uploads a user's profile picture and saves the URL in the database
//	@Tags			users
//	@Accept			mpfd
//	@Produce		json
//	@Param			profile_picture	formData	file	true	"Profile picture file size limit is 2MB"
//	@Success		200				{object}	map[string]string
//	@Failure		400				{object}	error	"Unable to parse form or retrieve file"
//	@Failure		500				{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/profile-picture [post]
func (app *application) uploadProfilePictureHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	err := r.ParseMultipartForm(2 << 20) // 2 MB
	if err != nil {
		app.badRequestResponse(w, r, errors.New("unable to parse form, file size limit is 2MB"))
		return
	}

	file, fileHeader, err := r.FormFile("profile_picture")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("unable to retrieve file"))
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" {
		app.badRequestResponse(w, r, errors.New("only JPEG and PNG images are allowed"))
		return
	}

	oldURL, err := app.store.Users.GetProfilePictureURL(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	secureURL, err := app.uploadProfilePicture(r.Context(), file, user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.SetProfilePicture(r.Context(), user.ID, secureURL); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	// The new URL is saved; losing the orphaned asset is not worth failing
	// the request over.
	if oldURL != "" {
		if err := app.deletePhotoFromCloudinary(oldURL); err != nil {
			app.logger.Errorw("failed to delete previous profile picture", "user_id", user.ID, "error", err)
		}
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{
		"profile_picture_url": secureURL,
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// logoutHandler godoc
//
//	@Summary		Logout user
//	@Description	Logs out the user by clearing the stored refresh token
//	@Tags			users
//	@Success		204	{string}	string	"No Content"
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/logout [post]
func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	if err := app.store.Users.ClearRefreshToken(r.Context(), user.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// deleteAccountHandler godoc
//
//	@Summary		Delete account
//	@Description	Deletes the authenticated user's account. Fails with 409 while the user still owns games.
//	@Tags			users
//	@Success		204	{string}	string	"No Content"
//	@Failure		409	{object}	error	"User still owns games"
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users [delete]
func (app *application) deleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	oldURL, err := app.store.Users.GetProfilePictureURL(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.Delete(r.Context(), user.ID); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			app.conflictResponse(w, r, errors.New("transfer or delete your games before deleting your account"))
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	// The account is gone either way; the orphaned asset only costs storage.
	if oldURL != "" {
		if err := app.deletePhotoFromCloudinary(oldURL); err != nil {
			app.logger.Errorw("failed to delete profile picture for removed account", "user_id", user.ID, "error", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
