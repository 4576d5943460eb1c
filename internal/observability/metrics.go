package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain counters. HTTP-level metrics live in the middleware package.
var (
	// MessagesSent counts anonymous notes delivered to an inbox.
	MessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "anonote",
		Name:      "messages_sent_total",
		Help:      "Anonymous messages delivered to an inbox.",
	})

	ChatPosts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "anonote",
		Name:      "chat_posts_total",
		Help:      "Posts appended to the global chat.",
	})

	QuestionsAsked = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "anonote",
		Name:      "questions_total",
		Help:      "Questions posted to the Q&A board.",
	})

	RepliesPosted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "anonote",
		Name:      "replies_total",
		Help:      "Replies posted to questions.",
	})

	// SessionsIssued counts session cookies by flow: anonymous or signin.
	SessionsIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "anonote",
		Name:      "sessions_issued_total",
		Help:      "Session cookies issued, by flow.",
	}, []string{"flow"})

	// Uploads counts profile picture uploads by outcome: ok, rejected, error.
	Uploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "anonote",
		Name:      "profile_uploads_total",
		Help:      "Profile picture uploads, by outcome.",
	}, []string{"outcome"})

	// FeedDropped counts live events dropped for slow subscribers.
	FeedDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "anonote",
		Name:      "feed_events_dropped_total",
		Help:      "Live feed events dropped because a subscriber was not keeping up.",
	})
)

func init() {
	prometheus.MustRegister(
		MessagesSent, ChatPosts, QuestionsAsked, RepliesPosted,
		SessionsIssued, Uploads, FeedDropped,
	)
}
