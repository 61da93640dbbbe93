package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Code string `json:"code"`
}

type forgotRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decode(w, r, &req) {
		return
	}

	sess, err := s.auth.Signup(r.Context(), req.Email, req.Password, req.Name)
	recordOutcome("signup", err)
	if err != nil {
		writeError(w, err)
		return
	}

	s.sessions.SetCookie(w, sess.Token, sess.ExpiresAt)
	writeOK(w, http.StatusCreated, "User created successfully", &sess.User)
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decode(w, r, &req) {
		return
	}

	p, err := s.auth.VerifyEmail(r.Context(), req.Code)
	recordOutcome("verify_email", err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, http.StatusOK, "Email verified successfully", p)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	sess, err := s.auth.Login(r.Context(), req.Email, req.Password)
	recordOutcome("login", err)
	if err != nil {
		writeError(w, err)
		return
	}

	s.sessions.SetCookie(w, sess.Token, sess.ExpiresAt)
	writeOK(w, http.StatusOK, "Logged in successfully", &sess.User)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.ClearCookie(w)
	recordOutcome("logout", nil)
	writeOK(w, http.StatusOK, "Logged out successfully", nil)
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if !decode(w, r, &req) {
		return
	}

	err := s.auth.ForgotPassword(r.Context(), req.Email)
	recordOutcome("forgot_password", err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, http.StatusOK, "If an account exists for that email, a reset link has been sent", nil)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decode(w, r, &req) {
		return
	}

	err := s.auth.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password)
	recordOutcome("reset_password", err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, http.StatusOK, "Password reset successful", nil)
}

func (s *Server) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	p, _ := ProfileFromContext(r.Context())
	writeOK(w, http.StatusOK, "", p)
}
