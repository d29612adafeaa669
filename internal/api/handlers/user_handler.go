package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/kmehta/taskhub-be/internal/auth"
	"github.com/kmehta/taskhub-be/internal/avatar"
	"github.com/kmehta/taskhub-be/internal/services"
)

// UserHandler handles HTTP requests for accounts, sessions and avatars.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

var allowedProfileFields = map[string]bool{
	"name":     true,
	"email":    true,
	"password": true,
	"age":      true,
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	user, token, err := h.service.Register(input)
	if err != nil {
		log.Warn().Err(err).Str("email", input.Email).Msg("Failed to register user")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"user": user, "token": token})
}

// Login handles authentication and issues an additive session token.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	user, token, err := h.service.Login(payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed authentication attempt")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user, "token": token})
}

// Logout revokes the session token the request was authenticated with.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	token, _ := auth.TokenFromContext(r.Context())

	if err := h.service.Logout(user.ID, token); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to log out")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out from current session"})
}

// LogoutAll revokes every session token held by the user.
func (h *UserHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if err := h.service.LogoutAll(user.ID); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to log out all sessions")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out from all sessions"})
}

// GetMe returns the authenticated user's own profile.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, user)
}

// UpdateMe updates the authenticated user's profile. Only the allow-listed
// fields may appear in the request body.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.UserFromContext(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	var update services.ProfileUpdate
	if err := decodeAllowList(body, &update, allowedProfileFields); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.UpdateUser(me.ID, update)
	if err != nil {
		log.Warn().Err(err).Str("user_id", me.ID).Msg("Failed to update user")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteMe deletes the authenticated user's account, cascading to its tasks.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.UserFromContext(r.Context())

	user, err := h.service.DeleteUser(me.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", me.ID).Msg("Failed to delete user")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UploadAvatar accepts a multipart upload in the "avatar" field.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.UserFromContext(r.Context())

	// Slack on top of the cap covers multipart framing; the exact size check
	// happens in the service.
	r.Body = http.MaxBytesReader(w, r.Body, avatar.MaxUploadBytes*2)

	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, &services.ValidationError{Fields: map[string]string{
			"avatar": "file is required and may not exceed 1 MB",
		}})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, &services.ValidationError{Fields: map[string]string{
			"avatar": "file is required and may not exceed 1 MB",
		}})
		return
	}

	if err := h.service.SetAvatar(me.ID, header.Filename, header.Size, data); err != nil {
		log.Warn().Err(err).Str("user_id", me.ID).Msg("Failed to store avatar")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "avatar uploaded"})
}

// DeleteAvatar clears the stored avatar.
func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.UserFromContext(r.Context())

	if err := h.service.ClearAvatar(me.ID); err != nil {
		log.Error().Err(err).Str("user_id", me.ID).Msg("Failed to clear avatar")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "avatar removed"})
}

// GetAvatar serves a user's avatar publicly in the canonical image format.
func (h *UserHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	blob, err := h.service.GetAvatar(id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", avatar.ContentType)
	w.Write(blob)
}
