package handlers

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/anonote-backend/internal/http/middleware"
)

// UploadResponse carries the public URL of a stored picture.
type UploadResponse struct {
	URL string `json:"url" example:"https://cdn.example.com/profile-pictures/user_1_abc-1718000000000.png"`
}

// uploadFile streams one multipart part into the profile service.
func (h *Handlers) uploadFile(c *gin.Context, uid string, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return h.profiles.UploadProfilePicture(c.Request.Context(), uid, f)
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a profile by uid
// @Tags        Users
// @Produce     json
// @Param       userId  path      string  true  "User ID"
// @Success     200     {object}  handlers.UserResponse
// @Failure     404     {object}  handlers.ErrorResponse  "User not found"
// @Failure     500     {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{userId} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	u, err := h.profiles.Get(c.Request.Context(), c.Param("userId"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, UserResponse{Success: true, User: u})
}

// GetUserByUsername godoc
// @ID          getUserByUsername
// @Summary     Get a profile by handle
// @Description Exact, case-sensitive match.
// @Tags        Users
// @Produce     json
// @Param       username  path      string  true  "Username"
// @Success     200       {object}  handlers.UserResponse
// @Failure     404       {object}  handlers.ErrorResponse  "User not found"
// @Failure     500       {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/by-username/{username} [get]
func (h *Handlers) GetUserByUsername(c *gin.Context) {
	u, err := h.profiles.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, UserResponse{Success: true, User: u})
}

// UploadProfilePicture godoc
// @ID          uploadProfilePicture
// @Summary     Upload a profile picture
// @Description Stores an image (png, jpeg, gif or webp, sniffed from content) and sets it on the caller's profile.
// @Tags        Users
// @Accept      mpfd
// @Produce     json
// @Param       file    formData  file    true   "Image"
// @Param       userId  formData  string  false  "Must match the session when sent"
// @Success     200     {object}  handlers.UploadResponse
// @Failure     400     {object}  handlers.ErrorResponse  "Missing file, unsupported type or too large"
// @Failure     401     {object}  handlers.ErrorResponse  "No session"
// @Failure     404     {object}  handlers.ErrorResponse  "User not found"
// @Failure     500     {object}  handlers.ErrorResponse  "Storage failure"
// @Router      /upload-profile [post]
func (h *Handlers) UploadProfilePicture(c *gin.Context) {
	uid := middleware.UserID(c)
	if claimed := c.PostForm("userId"); claimed != "" && claimed != uid {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "userId does not match the session")
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "file is required")
		return
	}

	url, err := h.uploadFile(c, uid, fh)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, UploadResponse{URL: url})
}
