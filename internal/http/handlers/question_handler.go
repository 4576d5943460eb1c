// Q&A HTTP handlers.
//
// This file exposes endpoints for the public question board:
//   - GET  /questions                  (newest first)
//   - POST /questions                  (ask as the session user)
//   - GET  /questions/{id}
//   - GET  /questions/{id}/replies     (oldest first)
//   - POST /questions/{id}/replies     (anyone replies; Idempotency-Key)
//   - GET  /questions/stream           (Server-Sent Events)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/anonote-backend/internal/domain"
	"github.com/tbourn/anonote-backend/internal/feed"
	"github.com/tbourn/anonote-backend/internal/http/middleware"
	"github.com/tbourn/anonote-backend/internal/services"
	"github.com/tbourn/anonote-backend/internal/utils"
)

// ListQuestionsResponse holds the board, newest first.
type ListQuestionsResponse struct {
	Questions []domain.Question `json:"questions"`
}

// QuestionResponse wraps one question.
type QuestionResponse struct {
	Success  bool             `json:"success" example:"true"`
	Question *domain.Question `json:"question"`
}

// ReplyRequest is the payload for an anonymous reply.
type ReplyRequest struct {
	Content string `json:"content" example:"Blue, obviously"`
	// Username is optional; blank replies are shown as "Anonymous".
	Username string `json:"username,omitempty" example:"Anonymous"`
}

// ReplyResponse wraps one stored reply.
type ReplyResponse struct {
	Success bool                  `json:"success" example:"true"`
	Reply   *domain.QuestionReply `json:"reply"`
}

// ListRepliesResponse holds a question's replies, oldest first.
type ListRepliesResponse struct {
	Replies []domain.QuestionReply `json:"replies"`
}

// ListQuestions godoc
// @ID          listQuestions
// @Summary     List questions
// @Description Returns up to 50 questions, newest first, with their reply counts.
// @Tags        Questions
// @Produce     json
// @Param       limit          query   int     false  "Maximum questions"  minimum(1) maximum(50) default(50)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {object}  handlers.ListQuestionsResponse
// @Success     304  {string}  string  "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /questions [get]
func (h *Handlers) ListQuestions(c *gin.Context) {
	ctx := c.Request.Context()

	limit := services.QuestionLimit(utils.QueryLimit(c.Query("limit")))
	if count, last, err := h.questions.Stats(ctx); err == nil {
		if notModified(c, weakETag("questions", limit, count, last)) {
			return
		}
	}

	items, err := h.questions.List(ctx, limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListQuestionsResponse{Questions: items})
}

// AskQuestion godoc
// @ID          askQuestion
// @Summary     Ask a question
// @Tags        Questions
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.PostContentRequest  true  "Question payload"
// @Success     200   {object}  handlers.QuestionResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Empty or too long content"
// @Failure     401   {object}  handlers.ErrorResponse  "No session"
// @Failure     404   {object}  handlers.ErrorResponse  "User not found"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /questions [post]
func (h *Handlers) AskQuestion(c *gin.Context) {
	uid := middleware.UserID(c)

	var req PostContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "question content required")
		return
	}

	q, err := h.questions.Ask(c.Request.Context(), uid, req.Content)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, QuestionResponse{Success: true, Question: q})
}

// GetQuestion godoc
// @ID          getQuestion
// @Summary     Get one question
// @Tags        Questions
// @Produce     json
// @Param       id   path      string  true  "Question ID"
// @Success     200  {object}  handlers.QuestionResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Question not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /questions/{id} [get]
func (h *Handlers) GetQuestion(c *gin.Context) {
	q, err := h.questions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, QuestionResponse{Success: true, Question: q})
}

// ListReplies godoc
// @ID          listReplies
// @Summary     List replies to a question
// @Description Oldest first.
// @Tags        Questions
// @Produce     json
// @Param       id   path      string  true  "Question ID"
// @Success     200  {object}  handlers.ListRepliesResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Question not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /questions/{id}/replies [get]
func (h *Handlers) ListReplies(c *gin.Context) {
	items, err := h.questions.Replies(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListRepliesResponse{Replies: items})
}

// PostReply godoc
// @ID          postReply
// @Summary     Reply to a question
// @Description Anyone may reply; no session is read. The question's reply count is incremented atomically.
// @Description Supports idempotency via the Idempotency-Key header (same key → same reply).
// @Tags        Questions
// @Accept      json
// @Produce     json
// @Param       id               path    string  true   "Question ID"
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"
// @Param       body             body    handlers.ReplyRequest  true  "Reply payload"
// @Success     200  {object}  handlers.ReplyResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Empty or too long content"
// @Failure     404  {object}  handlers.ErrorResponse  "Question not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /questions/{id}/replies [post]
func (h *Handlers) PostReply(c *gin.Context) {
	ctx := c.Request.Context()
	questionID := c.Param("id")

	if middleware.IsReplay(c) {
		if prev, err := h.questions.GetReply(ctx, questionID, middleware.ReplayedResource(c)); err == nil {
			c.Header(middleware.HeaderIdempotencyReplayed, "true")
			ok(c, http.StatusOK, ReplyResponse{Success: true, Reply: prev})
			return
		}
	}

	var req ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "reply content required")
		return
	}

	r, err := h.questions.Reply(ctx, questionID, req.Content, req.Username)
	if err != nil {
		failErr(c, err)
		return
	}

	h.recordIdempotency(c, r.ID, http.StatusOK)
	ok(c, http.StatusOK, ReplyResponse{Success: true, Reply: r})
}

// StreamQuestions godoc
// @ID          streamQuestions
// @Summary     Live question stream
// @Description Server-Sent Events. Emits "question.created" and "reply.created" plus "ping" heartbeats.
// @Tags        Questions
// @Produce     text/event-stream
// @Success     200  {string}  string  "event stream"
// @Failure     404  {object}  handlers.ErrorResponse  "Live feed disabled"
// @Router      /questions/stream [get]
func (h *Handlers) StreamQuestions(c *gin.Context) { h.stream(c, feed.TopicQuestions) }
