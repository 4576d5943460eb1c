package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/anonote-backend/internal/domain"
	"github.com/tbourn/anonote-backend/internal/http/middleware"
	"github.com/tbourn/anonote-backend/internal/repo"
)

// Stream routes, relative to the API group. They are excluded from request
// timeouts, gzip and latency histograms.
const (
	ChatStreamPath      = "/chat/stream"
	QuestionsStreamPath = "/questions/stream"
)

// Register mounts every endpoint on rg. Routes that act as the caller sit
// behind middleware.RequireSession.
func (h *Handlers) Register(rg *gin.RouterGroup) {
	requireSession := middleware.RequireSession()

	auth := rg.Group("/auth")
	auth.POST("/anonymous", h.CreateAnonymous)
	auth.GET("/check", h.CheckSession)
	auth.POST("/signin", h.Signin)
	auth.POST("/signout", h.Signout)

	rg.GET("/users/:userId", h.GetUser)
	rg.GET("/user/:userId", h.GetUser)
	rg.GET("/users/by-username/:username", h.GetUserByUsername)
	rg.POST("/upload-profile", requireSession, h.UploadProfilePicture)

	rg.GET("/messages/:userId", h.ListMessages)
	rg.POST("/messages/:userId", h.SendMessage)
	rg.GET("/messages/:userId/:messageId", h.GetMessage)
	rg.DELETE("/messages/:userId/:messageId", h.DeleteMessage)
	rg.PATCH("/messages/:userId/:messageId/read", h.MarkMessageRead)

	rg.GET("/chat", h.ListChat)
	rg.POST("/chat", requireSession, h.PostChat)
	rg.GET(ChatStreamPath, h.StreamChat)

	rg.GET("/questions", h.ListQuestions)
	rg.POST("/questions", requireSession, h.AskQuestion)
	rg.GET(QuestionsStreamPath, h.StreamQuestions)
	rg.GET("/questions/:id", h.GetQuestion)
	rg.GET("/questions/:id/replies", h.ListReplies)
	rg.POST("/questions/:id/replies", h.PostReply)
}

// IdempotencyScopes returns the scope table for the routes that honor
// Idempotency-Key, given the group prefix they are mounted under.
func IdempotencyScopes(base string) middleware.ScopeFunc {
	return middleware.RouteScopes(map[string]func(*gin.Context) string{
		"POST " + base + "/messages/:userId": func(c *gin.Context) string {
			return "messages:" + c.Param("userId")
		},
		"POST " + base + "/questions/:id/replies": func(c *gin.Context) string {
			return "replies:" + c.Param("id")
		},
	})
}

// IdempotencySource reads stored replay records. repo.Store and
// docstore.Store implement it.
type IdempotencySource interface {
	GetIdempotency(ctx context.Context, scope, key string, now time.Time) (*domain.Idempotency, error)
}

// ReplayLookup adapts src to middleware.IdempotencyLookup. A missing or
// expired record is a miss, not an error.
func ReplayLookup(src IdempotencySource) middleware.IdempotencyLookup {
	return func(ctx context.Context, scope, key string, now time.Time) (string, bool, error) {
		rec, err := src.GetIdempotency(ctx, scope, key, now)
		if errors.Is(err, repo.ErrNotFound) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		return rec.ResourceID, true, nil
	}
}
