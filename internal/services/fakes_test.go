package services

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/tbourn/anonote-backend/internal/domain"
	"github.com/tbourn/anonote-backend/internal/repo"
)

// memStore is an in-memory implementation of every store contract. Each
// *Err field, when set, is returned by the corresponding write.
type memStore struct {
	mu sync.Mutex

	users     map[string]*domain.User
	messages  []domain.Message
	chat      []domain.ChatMessage
	questions map[string]*domain.Question
	replies   []domain.QuestionReply
	seq       int

	upsertErr    error
	createMsgErr error
	addReplyErr  error
	lookupErr    error

	upsertCalls int
	createCalls int
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[string]*domain.User{},
		questions: map[string]*domain.Question{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return prefix + strconv.Itoa(m.seq)
}

func (m *memStore) addUser(uid, username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &domain.User{UID: uid}
	if username != "" {
		n := username
		u.Username = &n
	}
	m.users[uid] = u
}

// --- UserRepo ---

func (m *memStore) GetUser(_ context.Context, uid string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	u, ok := m.users[uid]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	for _, u := range m.users {
		if u.Username != nil && *u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memStore) CreateAnonymousUser(_ context.Context, uid string, now int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[uid]; !ok {
		m.users[uid] = &domain.User{UID: uid, CreatedAt: now, UpdatedAt: now}
	}
	cp := *m.users[uid]
	return &cp, nil
}

func (m *memStore) UpsertUser(_ context.Context, uid, username string, picture *string, now int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertCalls++
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	u, ok := m.users[uid]
	if !ok {
		u = &domain.User{UID: uid, CreatedAt: now}
		m.users[uid] = u
	}
	n := username
	u.Username = &n
	if picture != nil {
		p := *picture
		u.ProfilePicture = &p
	}
	u.UpdatedAt = now
	cp := *u
	return &cp, nil
}

func (m *memStore) SetProfilePicture(_ context.Context, uid, url string, now int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uid]
	if !ok {
		return repo.ErrNotFound
	}
	u.ProfilePicture = &url
	u.UpdatedAt = now
	return nil
}

// --- MessageRepo ---

func (m *memStore) CreateMessage(_ context.Context, recipientID, content string, note *string, ts int64) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createMsgErr != nil {
		return nil, m.createMsgErr
	}
	msg := domain.Message{ID: m.nextID("m"), RecipientID: recipientID, Content: content, Note: note, Timestamp: ts, UpdatedAt: ts}
	m.messages = append(m.messages, msg)
	return &msg, nil
}

func (m *memStore) ListMessages(_ context.Context, recipientID string, limit int) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Message{}
	for _, msg := range m.messages {
		if msg.RecipientID == recipientID {
			out = append(out, msg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) GetMessage(_ context.Context, recipientID, id string) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ID == id && msg.RecipientID == recipientID {
			cp := msg
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memStore) DeleteMessage(_ context.Context, recipientID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.messages[:0]
	for _, msg := range m.messages {
		if !(msg.ID == id && msg.RecipientID == recipientID) {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	return nil
}

func (m *memStore) MarkMessageRead(_ context.Context, recipientID, id string, now int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.messages {
		if m.messages[i].ID == id && m.messages[i].RecipientID == recipientID {
			m.messages[i].Read = true
			m.messages[i].UpdatedAt = now
			return nil
		}
	}
	return repo.ErrNotFound
}

func (m *memStore) MessagesStats(_ context.Context, recipientID string) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n, last int64
	for _, msg := range m.messages {
		if msg.RecipientID == recipientID {
			n++
			if msg.UpdatedAt > last {
				last = msg.UpdatedAt
			}
		}
	}
	return n, last, nil
}

// --- ChatRepo ---

func (m *memStore) CreateChatMessage(_ context.Context, userID, username string, picture *string, content string, ts int64) (*domain.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := domain.ChatMessage{ID: m.nextID("c"), UserID: userID, Username: username, ProfilePicture: picture, Content: content, Timestamp: ts}
	m.chat = append(m.chat, c)
	return &c, nil
}

func (m *memStore) ListRecentChatMessages(_ context.Context, limit int) ([]domain.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]domain.ChatMessage{}, m.chat...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ChatStats(_ context.Context) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last int64
	for _, c := range m.chat {
		if c.Timestamp > last {
			last = c.Timestamp
		}
	}
	return int64(len(m.chat)), last, nil
}

// --- QuestionRepo ---

func (m *memStore) CreateQuestion(_ context.Context, userID, username string, picture *string, content string, ts int64) (*domain.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := &domain.Question{ID: m.nextID("q"), UserID: userID, Username: username, ProfilePicture: picture, Content: content, Timestamp: ts, UpdatedAt: ts}
	m.questions[q.ID] = q
	cp := *q
	return &cp, nil
}

func (m *memStore) ListQuestions(_ context.Context, limit int) ([]domain.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Question{}
	for _, q := range m.questions {
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) GetQuestion(_ context.Context, id string) (*domain.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (m *memStore) AddReply(_ context.Context, questionID, username, content string, ts int64) (*domain.QuestionReply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addReplyErr != nil {
		return nil, m.addReplyErr
	}
	q, ok := m.questions[questionID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	q.ReplyCount++
	q.UpdatedAt = ts
	r := domain.QuestionReply{ID: m.nextID("r"), QuestionID: questionID, Username: username, Content: content, Timestamp: ts}
	m.replies = append(m.replies, r)
	return &r, nil
}

func (m *memStore) GetReply(_ context.Context, questionID, id string) (*domain.QuestionReply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.replies {
		if r.ID == id && r.QuestionID == questionID {
			cp := r
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memStore) ListReplies(_ context.Context, questionID string) ([]domain.QuestionReply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.QuestionReply{}
	for _, r := range m.replies {
		if r.QuestionID == questionID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

func (m *memStore) QuestionsStats(_ context.Context) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last int64
	for _, q := range m.questions {
		if q.UpdatedAt > last {
			last = q.UpdatedAt
		}
	}
	return int64(len(m.questions)), last, nil
}

// fixedClock returns a clock that advances one millisecond per call.
func fixedClock(startMs int64) func() time.Time {
	var mu sync.Mutex
	t := startMs
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t++
		return time.UnixMilli(t)
	}
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(topic, typ string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, topic+"/"+typ)
}

var (
	_ UserRepo     = (*memStore)(nil)
	_ MessageRepo  = (*memStore)(nil)
	_ ChatRepo     = (*memStore)(nil)
	_ QuestionRepo = (*memStore)(nil)
)
