// Session HTTP handlers.
//
// This file exposes the identity endpoints:
//   - POST /auth/anonymous  (mint an anonymous profile and session)
//   - GET  /auth/check      (report the caller resolved from the cookie)
//   - POST /auth/signin     (claim a handle, optionally via an identity token)
//   - POST /auth/signout    (clear the session cookie)
//
// The session cookie value is a signed token carrying the uid; the session
// middleware resolves it once per request.
package handlers

import (
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/anonote-backend/internal/auth"
	"github.com/tbourn/anonote-backend/internal/domain"
	"github.com/tbourn/anonote-backend/internal/http/middleware"
	"github.com/tbourn/anonote-backend/internal/observability"
)

// Session flows, also the label values of the sessions metric.
const (
	flowAnonymous = "anonymous"
	flowSignin    = "signin"
)

//
// DTOs
//

// AnonymousResponse is returned by POST /auth/anonymous.
type AnonymousResponse struct {
	Success bool   `json:"success" example:"true"`
	UserID  string `json:"userId" example:"user_1718000000000_k3j9x0a1b2c3d"`
}

// CheckResponse reports whether the cookie resolved to a user.
type CheckResponse struct {
	Authenticated bool    `json:"authenticated" example:"true"`
	UserID        *string `json:"userId" example:"user_1718000000000_k3j9x0a1b2c3d"`
}

// SigninRequest is accepted as JSON or as multipart form fields (with an
// optional "file" part holding the profile picture).
type SigninRequest struct {
	// IDToken is an identity-provider token. When absent the current session is used.
	IDToken string `json:"idToken" form:"idToken"`
	// UserID, when sent, must match the current session.
	UserID string `json:"userId" form:"userId" example:"user_1718000000000_k3j9x0a1b2c3d"`
	// Username is the handle to claim.
	Username string `json:"username" form:"username" example:"alice_01"`
	// ProfilePicture is an absolute URL.
	ProfilePicture *string `json:"profilePicture" form:"profilePicture" example:"https://cdn.example.com/p.png"`
}

// UserResponse wraps a profile.
type UserResponse struct {
	Success bool         `json:"success" example:"true"`
	User    *domain.User `json:"user"`
}

//
// Helpers
//

// setSession issues a cookie for uid valid for ttl.
func (h *Handlers) setSession(c *gin.Context, uid, flow string, ttl time.Duration) error {
	token, _, err := h.sessions.Issue(uid, flow, ttl)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, int(ttl.Seconds()), "/", "", h.cookie.Secure, true)
	observability.SessionsIssued.WithLabelValues(flow).Inc()
	return nil
}

// signinFile returns the optional "file" part of a multipart sign-in.
func signinFile(c *gin.Context) *multipart.FileHeader {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return nil
	}
	return fh
}

//
// Handlers
//

// CreateAnonymous godoc
// @ID          createAnonymous
// @Summary     Start an anonymous session
// @Description Mints a uid, stores a profile stub and sets the session cookie (365 days).
// @Tags        Auth
// @Produce     json
// @Success     200  {object}  handlers.AnonymousResponse
// @Header      200  {string}  Set-Cookie  "userId session cookie"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/anonymous [post]
func (h *Handlers) CreateAnonymous(c *gin.Context) {
	u, err := h.profiles.CreateAnonymous(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	if err := h.setSession(c, u.UID, flowAnonymous, h.cookie.AnonTTL); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, AnonymousResponse{Success: true, UserID: u.UID})
}

// CheckSession godoc
// @ID          checkSession
// @Summary     Report the current session
// @Description Resolves the caller from the session cookie only. Never fails.
// @Tags        Auth
// @Produce     json
// @Success     200  {object}  handlers.CheckResponse
// @Router      /auth/check [get]
func (h *Handlers) CheckSession(c *gin.Context) {
	uid := middleware.UserID(c)
	if uid == "" {
		ok(c, http.StatusOK, CheckResponse{Authenticated: false})
		return
	}
	ok(c, http.StatusOK, CheckResponse{Authenticated: true, UserID: &uid})
}

// Signin godoc
// @ID          signin
// @Summary     Claim a handle
// @Description Verifies idToken with the identity provider (or uses the current session),
// @Description then creates or updates the profile and sets a 7-day session cookie.
// @Description A multipart body may carry a "file" part; a failed upload does not fail sign-in.
// @Tags        Auth
// @Accept      json
// @Accept      mpfd
// @Produce     json
// @Param       body  body      handlers.SigninRequest  true  "Sign-in payload"
// @Success     200   {object}  handlers.UserResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Missing or invalid fields, username taken"
// @Failure     401   {object}  handlers.ErrorResponse  "No identity or rejected token"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/signin [post]
func (h *Handlers) Signin(c *gin.Context) {
	ctx := c.Request.Context()

	var req SigninRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}

	var uid string
	if tok := strings.TrimSpace(req.IDToken); tok != "" {
		id, err := h.verifier.Verify(ctx, tok)
		if err != nil {
			failErr(c, err)
			return
		}
		uid = id.UID
	} else {
		uid = middleware.UserID(c)
		if req.UserID != "" && req.UserID != uid {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "userId does not match the session")
			return
		}
	}
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username is required")
		return
	}

	u, err := h.profiles.CreateOrUpdate(ctx, uid, username, req.ProfilePicture)
	if err != nil {
		failErr(c, err)
		return
	}

	if fh := signinFile(c); fh != nil {
		if url, err := h.uploadFile(c, uid, fh); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("profile picture upload failed during sign-in")
		} else {
			u.ProfilePicture = &url
		}
	}

	if err := h.setSession(c, uid, flowSignin, h.cookie.SigninTTL); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, UserResponse{Success: true, User: u})
}

// Signout godoc
// @ID          signout
// @Summary     End the session
// @Description Expires the session cookie.
// @Tags        Auth
// @Produce     json
// @Success     200  {object}  handlers.SuccessResponse
// @Router      /auth/signout [post]
func (h *Handlers) Signout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, "", -1, "/", "", h.cookie.Secure, true)
	ok(c, http.StatusOK, SuccessResponse{Success: true})
}
