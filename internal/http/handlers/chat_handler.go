// Chat HTTP handlers.
//
// This file exposes endpoints for the global chat:
//   - GET  /chat          (recent posts, chronological, ETag support)
//   - POST /chat          (post as the session user)
//   - GET  /chat/stream   (Server-Sent Events: live posts plus heartbeats)
//
// The stream helper is shared with the questions feed.
package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/anonote-backend/internal/domain"
	"github.com/tbourn/anonote-backend/internal/feed"
	"github.com/tbourn/anonote-backend/internal/http/middleware"
	"github.com/tbourn/anonote-backend/internal/services"
	"github.com/tbourn/anonote-backend/internal/utils"
)

//
// DTOs
//

// PostContentRequest carries the text of a chat post or a question.
type PostContentRequest struct {
	// Content is 1..500 runes after trimming.
	Content string `json:"content" example:"Anyone else up late?"`
}

// ListChatResponse holds recent posts, oldest first.
type ListChatResponse struct {
	Messages []domain.ChatMessage `json:"messages"`
}

// ChatPostResponse wraps a stored post.
type ChatPostResponse struct {
	Success bool                `json:"success" example:"true"`
	Message *domain.ChatMessage `json:"message"`
}

//
// Helpers
//

// stream relays feed events for topic as Server-Sent Events until the client
// disconnects or the feed closes. A "ready" event opens the stream and a
// "ping" event is sent every heartbeat interval.
func (h *Handlers) stream(c *gin.Context, topic string) {
	if h.feed == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "live feed is not enabled")
		return
	}

	ctx := c.Request.Context()
	events := h.feed.Subscribe(ctx, topic)
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	// Streams outlive the server write timeout.
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		middleware.LoggerFrom(c).Debug().Err(err).Msg("write deadline not adjustable")
	}

	started := false
	c.Stream(func(w io.Writer) bool {
		if !started {
			started = true
			c.SSEvent("ready", gin.H{"topic": topic})
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case ev, open := <-events:
			if !open {
				return false
			}
			c.SSEvent(ev.Type, ev)
			return true
		case t := <-ticker.C:
			c.SSEvent("ping", t.UnixMilli())
			return true
		}
	})
	middleware.LoggerFrom(c).Debug().Str("topic", topic).Msg("stream closed")
}

//
// Handlers
//

// ListChat godoc
// @ID          listChat
// @Summary     Recent chat posts
// @Description Returns up to 100 of the newest posts in chronological order.
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Chat
// @Produce     json
// @Param       limit          query   int     false  "Maximum posts"  minimum(1) maximum(100) default(100)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {object}  handlers.ListChatResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat [get]
func (h *Handlers) ListChat(c *gin.Context) {
	ctx := c.Request.Context()

	limit := services.ChatLimit(utils.QueryLimit(c.Query("limit")))
	if count, last, err := h.chat.Stats(ctx); err == nil {
		if notModified(c, weakETag("chat", limit, count, last)) {
			return
		}
	}

	items, err := h.chat.Recent(ctx, limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListChatResponse{Messages: items})
}

// PostChat godoc
// @ID          postChat
// @Summary     Post to the global chat
// @Description Posts as the session user; the author's handle and picture are attached.
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.PostContentRequest  true  "Post payload"
// @Success     200   {object}  handlers.ChatPostResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Empty or too long content"
// @Failure     401   {object}  handlers.ErrorResponse  "No session"
// @Failure     404   {object}  handlers.ErrorResponse  "User not found"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat [post]
func (h *Handlers) PostChat(c *gin.Context) {
	uid := middleware.UserID(c)

	var req PostContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message content required")
		return
	}

	m, err := h.chat.Post(c.Request.Context(), uid, req.Content)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ChatPostResponse{Success: true, Message: m})
}

// StreamChat godoc
// @ID          streamChat
// @Summary     Live chat stream
// @Description Server-Sent Events. Emits "ready" once, "chat.created" per post and "ping" heartbeats.
// @Tags        Chat
// @Produce     text/event-stream
// @Success     200  {string}  string  "event stream"
// @Failure     404  {object}  handlers.ErrorResponse  "Live feed disabled"
// @Router      /chat/stream [get]
func (h *Handlers) StreamChat(c *gin.Context) { h.stream(c, feed.TopicChat) }
