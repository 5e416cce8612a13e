// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/sprinto/internal/platform/apperr"
	"github.com/taibuivan/sprinto/internal/platform/middleware"
	requestutil "github.com/taibuivan/sprinto/internal/platform/request"
	"github.com/taibuivan/sprinto/internal/platform/respond"
	"github.com/taibuivan/sprinto/internal/platform/validate"
)

// # Definitions & Constructors

// Gate is a middleware placed in front of a sensitive route, such as a rate limit.
type Gate func(http.Handler) http.Handler

// Gates holds the optional limits for the login and forgot-password routes.
type Gates struct {
	Login          Gate
	ForgotPassword Gate
}

// Handler implements the /auth endpoints.
type Handler struct {
	authService *Service
	gates       Gates
}

// NewHandler constructs a [Handler]. Nil gates let requests straight through.
func NewHandler(service *Service, gates Gates) *Handler {
	return &Handler{authService: service, gates: gates}
}

func passThrough(next http.Handler) http.Handler { return next }

func (gate Gate) orPassThrough() Gate {
	if gate == nil {
		return passThrough
	}
	return gate
}

// Routes returns a [chi.Router] with the auth endpoints.
//
// # Endpoints
//   - POST /register, /login, /refresh, /resend-verification, /forgot-password
//   - GET  /verify-email/{token}
//   - PUT  /reset-password/{token}
//   - POST /logout, GET /me, PUT /password (bearer required)
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.With(handler.gates.Login.orPassThrough()).Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Get("/verify-email/{token}", handler.verifyEmail)
	router.Post("/resend-verification", handler.resendVerification)
	router.With(handler.gates.ForgotPassword.orPassThrough()).Post("/forgot-password", handler.forgotPassword)
	router.Put("/reset-password/{token}", handler.resetPassword)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout", handler.logout)
		r.Get("/me", handler.me)
		r.Put("/password", handler.updatePassword)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ForgotPasswordMessage is returned whether or not the email is registered.
const ForgotPasswordMessage = "If that email is registered, a password reset link has been sent"

func sessionBody(session *Session) respond.Body {
	body := respond.Body{
		FieldAccessToken: session.AccessToken,
		FieldUser:        session.User,
	}
	if session.RefreshToken != "" {
		body[FieldRefreshToken] = session.RefreshToken
	}
	return body
}

/*
POST /api/auth/register.

Request:
  - Body: registerRequest (name, email, password; any role field is ignored)

Response:
  - 201: {accessToken, refreshToken, user}
  - 400: Validation failure or "Email already registered"
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, MaxNameLength).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Register(request.Context(), RegisterInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, sessionBody(session))
}

/*
POST /api/auth/login.

Response:
  - 200: {accessToken, refreshToken, user}
  - 401: "Invalid credentials"
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if input.Email == "" || input.Password == "" {
		respond.Error(writer, request, apperr.BadRequest("Please provide email and password"))
		return
	}

	session, err := handler.authService.Login(request.Context(), input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sessionBody(session))
}

/*
POST /api/auth/refresh.

Response:
  - 200: {accessToken}
  - 401: Invalid, expired, revoked or wrong-class token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if input.RefreshToken == "" {
		respond.Error(writer, request, apperr.Unauthorized("Refresh token required"))
		return
	}

	accessToken, err := handler.authService.Refresh(request.Context(), input.RefreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, respond.Body{FieldAccessToken: accessToken})
}

// POST /api/auth/logout.
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Logout(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Logged out successfully")
}

// GET /api/auth/me.
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Me(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, respond.Body{FieldUser: user})
}

// GET /api/auth/verify-email/{token}.
func (handler *Handler) verifyEmail(writer http.ResponseWriter, request *http.Request) {
	if err := handler.authService.VerifyEmail(request.Context(), requestutil.Param(request, FieldToken)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Email verified successfully")
}

/*
POST /api/auth/resend-verification.

Response:
  - 200: message
  - 404: No account for the email
  - 400: Already verified
*/
func (handler *Handler) resendVerification(writer http.ResponseWriter, request *http.Request) {
	var input emailRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if input.Email == "" {
		respond.Error(writer, request, validate.RequiredError(FieldEmail, "Email is required"))
		return
	}

	if err := handler.authService.ResendVerification(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Verification email sent")
}

/*
POST /api/auth/forgot-password.

Response:
  - 200: The same message for known and unknown emails
  - 500: "Email could not be sent"
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input emailRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if input.Email == "" {
		respond.Error(writer, request, validate.RequiredError(FieldEmail, "Email is required"))
		return
	}

	if err := handler.authService.ForgotPassword(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, ForgotPasswordMessage)
}

// PUT /api/auth/reset-password/{token}.
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ResetPassword(request.Context(), requestutil.Param(request, FieldToken), input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Message(writer, "Password reset successful. Please log in with your new password")
}

/*
PUT /api/auth/password.

Response:
  - 200: {accessToken, refreshToken, user}
  - 400: Wrong current password
*/
func (handler *Handler) updatePassword(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updatePasswordRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldCurrentPassword, input.CurrentPassword).
		Required(FieldNewPassword, input.NewPassword)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.UpdatePassword(request.Context(), userID, input.CurrentPassword, input.NewPassword)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sessionBody(session))
}
