package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clinicdesk/identity/internal/common"
	"github.com/clinicdesk/identity/internal/server/models"
)

// maxBodyBytes caps request bodies; every request here is a few fields.
const maxBodyBytes = 1 << 16

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	User    *models.Profile `json:"user,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeOK(w http.ResponseWriter, status int, msg string, user *models.Profile) {
	writeJSON(w, status, response{Success: true, Message: msg, User: user})
}

func writeFail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, response{Success: false, Message: msg})
}

// writeError maps a service error to a status and a client-safe message.
// Unknown errors become a generic 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		writeFail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorDuplicateAccount):
		writeFail(w, http.StatusConflict, "User already exists")
	case errors.Is(err, common.ErrorInvalidCredentials):
		writeFail(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, common.ErrorInvalidOrExpiredCode):
		writeFail(w, http.StatusBadRequest, "Invalid or expired verification code")
	case errors.Is(err, common.ErrorInvalidOrExpiredToken):
		writeFail(w, http.StatusBadRequest, "Invalid or expired reset token")
	case errors.Is(err, common.ErrorUnauthenticated):
		writeFail(w, http.StatusUnauthorized, "Not authenticated")
	default:
		writeFail(w, http.StatusInternalServerError, "Server error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeFail(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
