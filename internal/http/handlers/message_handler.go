// Inbox HTTP handlers.
//
// This file exposes REST endpoints for the anonymous inbox:
//   - GET    /messages/{userId}                    (recipient lists notes, ETag support)
//   - POST   /messages/{userId}                    (anyone sends a note)
//   - DELETE /messages/{userId}/{messageId}        (recipient deletes a note)
//   - PATCH  /messages/{userId}/{messageId}/read   (recipient marks a note read)
//
// Senders are never identified: the POST handler does not read the session
// and nothing about the caller is stored with the note.
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous send
// exists for (recipient, key), the handler returns the recorded message id
// and sets `Idempotency-Replayed: true` without storing a second note.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/anonote-backend/internal/domain"
	"github.com/tbourn/anonote-backend/internal/http/middleware"
	"github.com/tbourn/anonote-backend/internal/services"
	"github.com/tbourn/anonote-backend/internal/utils"
)

//
// DTOs
//

// SendMessageRequest is the JSON payload for sending an anonymous note.
type SendMessageRequest struct {
	// Text is the note body (1..500 runes after trimming).
	Text string `json:"text" example:"You gave a great talk today"`
	// Note is the prompt the recipient showed the sender, if any.
	Note *string `json:"note,omitempty" example:"Tell me something honest"`
}

// SendMessageResponse reports the id of the stored note.
type SendMessageResponse struct {
	Success   bool   `json:"success" example:"true"`
	MessageID string `json:"messageId" example:"5f0c2c1e-2a7b-4f43-9a51-0d2c7e1b1a10"`
}

// ListMessagesResponse contains the recipient's inbox, newest first.
type ListMessagesResponse struct {
	Messages []domain.Message `json:"messages"`
}

//
// Helpers
//

// requireOwner reports whether the caller's session matches the :userId path
// parameter, writing a 401 when it does not.
func requireOwner(c *gin.Context) (string, bool) {
	uid := middleware.UserID(c)
	if uid == "" || uid != c.Param("userId") {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "only the recipient can access this inbox")
		return "", false
	}
	return uid, true
}

// recordIdempotency stores the created resource for the validated key, if any.
// Failures are logged and otherwise ignored.
func (h *Handlers) recordIdempotency(c *gin.Context, resourceID string, status int) {
	if h.idem == nil {
		return
	}
	key, hasKey := middleware.GetIdempotencyKey(c)
	scope := middleware.IdempotencyScope(c)
	if !hasKey || scope == "" {
		return
	}
	if _, err := h.idem.CreateIdempotency(c.Request.Context(), scope, key, resourceID, status, h.idemTTL); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Str("scope", scope).Msg("idempotency record failed")
	}
}

//
// Handlers
//

// ListMessages godoc
// @ID          listMessages
// @Summary     List the caller's inbox
// @Description Recipient only. Newest first; limit is clamped to [1, 50].
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Messages
// @Produce     json
//
// @Param       userId         path    string  true   "Recipient user ID (must match the session)"
// @Param       limit          query   int     false  "Maximum notes"  minimum(1) maximum(50) default(50)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
//
// @Success     200  {object}  handlers.ListMessagesResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Not the recipient"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /messages/{userId} [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	uid, owner := requireOwner(c)
	if !owner {
		return
	}

	limit := services.InboxLimit(utils.QueryLimit(c.Query("limit")))

	// ETag pre-check (best effort).
	if count, last, err := h.messages.Stats(ctx, uid); err == nil {
		if notModified(c, weakETag("messages:"+uid, limit, count, last)) {
			return
		}
	}

	items, err := h.messages.List(ctx, uid, limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListMessagesResponse{Messages: items})
}

// SendMessage godoc
// @ID          sendMessage
// @Summary     Send an anonymous note
// @Description Stores an unread note for the recipient. No sender identity is recorded.
// @Description Supports idempotency via the Idempotency-Key header (same key → same message id).
// @Tags        Messages
// @Accept      json
// @Produce     json
//
// @Param       userId           path    string  true   "Recipient user ID"
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"
// @Param       body             body    handlers.SendMessageRequest  true  "Note payload"
//
// @Success     200  {object}  handlers.SendMessageResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Empty or too long text"
// @Failure     404  {object}  handlers.ErrorResponse  "Recipient not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /messages/{userId} [post]
func (h *Handlers) SendMessage(c *gin.Context) {
	if middleware.IsReplay(c) {
		c.Header(middleware.HeaderIdempotencyReplayed, "true")
		ok(c, http.StatusOK, SendMessageResponse{Success: true, MessageID: middleware.ReplayedResource(c)})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message text is required")
		return
	}

	m, err := h.messages.Send(c.Request.Context(), c.Param("userId"), req.Text, req.Note)
	if err != nil {
		failErr(c, err)
		return
	}

	h.recordIdempotency(c, m.ID, http.StatusOK)
	ok(c, http.StatusOK, SendMessageResponse{Success: true, MessageID: m.ID})
}

// MessageResponse wraps one note.
type MessageResponse struct {
	Success bool            `json:"success" example:"true"`
	Message *domain.Message `json:"message"`
}

// GetMessage godoc
// @ID          getMessage
// @Summary     Get one note
// @Tags        Messages
// @Produce     json
// @Param       userId     path      string  true  "Recipient user ID (must match the session)"
// @Param       messageId  path      string  true  "Message ID"
// @Success     200        {object}  handlers.MessageResponse
// @Failure     401        {object}  handlers.ErrorResponse  "Not the recipient"
// @Failure     404        {object}  handlers.ErrorResponse  "Message not found"
// @Failure     500        {object}  handlers.ErrorResponse  "Internal error"
// @Router      /messages/{userId}/{messageId} [get]
func (h *Handlers) GetMessage(c *gin.Context) {
	uid, owner := requireOwner(c)
	if !owner {
		return
	}
	m, err := h.messages.Get(c.Request.Context(), uid, c.Param("messageId"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Success: true, Message: m})
}

// DeleteMessage godoc
// @ID          deleteMessage
// @Summary     Delete a note
// @Description Recipient only. Deleting a note that is already gone succeeds.
// @Tags        Messages
// @Produce     json
// @Param       userId     path      string  true  "Recipient user ID (must match the session)"
// @Param       messageId  path      string  true  "Message ID"
// @Success     200        {object}  handlers.SuccessResponse
// @Failure     401        {object}  handlers.ErrorResponse  "Not the recipient"
// @Failure     500        {object}  handlers.ErrorResponse  "Internal error"
// @Router      /messages/{userId}/{messageId} [delete]
func (h *Handlers) DeleteMessage(c *gin.Context) {
	uid, owner := requireOwner(c)
	if !owner {
		return
	}
	if err := h.messages.Delete(c.Request.Context(), uid, c.Param("messageId")); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, SuccessResponse{Success: true})
}

// MarkMessageRead godoc
// @ID          markMessageRead
// @Summary     Mark a note read
// @Tags        Messages
// @Produce     json
// @Param       userId     path      string  true  "Recipient user ID (must match the session)"
// @Param       messageId  path      string  true  "Message ID"
// @Success     200        {object}  handlers.SuccessResponse
// @Failure     401        {object}  handlers.ErrorResponse  "Not the recipient"
// @Failure     404        {object}  handlers.ErrorResponse  "Message not found"
// @Failure     500        {object}  handlers.ErrorResponse  "Internal error"
// @Router      /messages/{userId}/{messageId}/read [patch]
func (h *Handlers) MarkMessageRead(c *gin.Context) {
	uid, owner := requireOwner(c)
	if !owner {
		return
	}
	if err := h.messages.MarkRead(c.Request.Context(), uid, c.Param("messageId")); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, SuccessResponse{Success: true})
}
