// Package domain defines the persistence models for profiles, inbox messages,
// the global chat and the Q&A board. The same types are mapped by GORM for the
// SQL backends and by the BSON codec for the document-store backend, so every
// field carries both tag sets.
//
// All timestamps are epoch milliseconds.
package domain

// DefaultUsername is shown for authors that never claimed a handle.
const DefaultUsername = "Anonymous"

// User is a profile record keyed by its opaque uid. Anonymous stubs have no
// username; a claimed username is unique across all users.
//
// Fields:
//   - UID: opaque identifier minted at anonymous sign-up or trusted from the
//     identity provider.
//   - Username: optional handle, ^[a-zA-Z0-9_]{1,20}$, case-sensitive.
//   - ProfilePicture: public URL of the uploaded avatar.
//   - CreatedAt: set once, preserved across merge writes.
//   - UpdatedAt: refreshed on every write.
type User struct {
	UID            string  `json:"uid"                      gorm:"column:uid;type:varchar(64);primaryKey"       bson:"_id"`
	Username       *string `json:"username,omitempty"       gorm:"type:varchar(20);uniqueIndex:ux_users_username" bson:"username,omitempty"`
	ProfilePicture *string `json:"profilePicture,omitempty" gorm:"type:text"                                   bson:"profile_picture,omitempty"`
	CreatedAt      int64   `json:"createdAt"                gorm:"not null;autoCreateTime:milli"               bson:"created_at"`
	UpdatedAt      int64   `json:"updatedAt"                gorm:"not null;autoUpdateTime:milli"               bson:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// DisplayName returns the username, or DefaultUsername for anonymous stubs.
func (u *User) DisplayName() string {
	if u == nil || u.Username == nil || *u.Username == "" {
		return DefaultUsername
	}
	return *u.Username
}

// Message is an anonymous note delivered to a recipient's inbox. No sender
// identity is recorded.
type Message struct {
	ID          string  `json:"id"             gorm:"type:char(36);primaryKey"                       bson:"_id"`
	RecipientID string  `json:"recipientId"    gorm:"type:varchar(64);not null;index:idx_inbox,priority:1" bson:"recipient_id"`
	Note        *string `json:"note,omitempty" gorm:"type:text"                                      bson:"note,omitempty"`
	Content     string  `json:"content"        gorm:"type:text;not null"                             bson:"content"`
	Timestamp   int64   `json:"timestamp"      gorm:"not null;index:idx_inbox,priority:2"            bson:"timestamp"`
	Read        bool    `json:"read"           gorm:"not null;default:false"                         bson:"read"`
	UpdatedAt   int64   `json:"-"              gorm:"not null;autoUpdateTime:milli"                  bson:"updated_at"`

	// Recipient is the inbox owner. Messages go away with the profile.
	Recipient User `json:"-" bson:"-" gorm:"foreignKey:RecipientID;references:UID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// ChatMessage is a post in the single global chat room. Author display data
// is denormalized at write time.
type ChatMessage struct {
	ID             string  `json:"id"                       gorm:"type:char(36);primaryKey"       bson:"_id"`
	UserID         string  `json:"userId"                   gorm:"type:varchar(64);not null;index" bson:"user_id"`
	Username       string  `json:"username"                 gorm:"type:varchar(20);not null"      bson:"username"`
	ProfilePicture *string `json:"profilePicture,omitempty" gorm:"type:text"                      bson:"profile_picture,omitempty"`
	Content        string  `json:"content"                  gorm:"type:text;not null"             bson:"content"`
	Timestamp      int64   `json:"timestamp"                gorm:"not null;index:idx_chat_ts"     bson:"timestamp"`
}

// TableName returns the database table name for ChatMessage.
func (ChatMessage) TableName() string { return "global_chat" }

// Question is a public Q&A post. ReplyCount is denormalized and maintained by
// an atomic increment alongside every reply insert.
type Question struct {
	ID             string  `json:"id"                       gorm:"type:char(36);primaryKey"                   bson:"_id"`
	UserID         string  `json:"userId"                   gorm:"type:varchar(64);not null;index"            bson:"user_id"`
	Username       string  `json:"username"                 gorm:"type:varchar(20);not null"                  bson:"username"`
	ProfilePicture *string `json:"profilePicture,omitempty" gorm:"type:text"                                  bson:"profile_picture,omitempty"`
	Content        string  `json:"content"                  gorm:"type:text;not null"                         bson:"content"`
	Timestamp      int64   `json:"timestamp"                gorm:"not null;index:idx_questions_ts"            bson:"timestamp"`
	ReplyCount     int     `json:"replyCount"               gorm:"not null;default:0;check:reply_count >= 0"  bson:"reply_count"`
	UpdatedAt      int64   `json:"-"                        gorm:"not null;autoUpdateTime:milli"              bson:"updated_at"`
}

// TableName returns the database table name for Question.
func (Question) TableName() string { return "questions" }

// QuestionReply is an anonymous answer to a Question.
type QuestionReply struct {
	ID         string `json:"id"         gorm:"type:char(36);primaryKey"                             bson:"_id"`
	QuestionID string `json:"questionId" gorm:"type:char(36);not null;index:idx_replies,priority:1"  bson:"question_id"`
	Username   string `json:"username"   gorm:"type:varchar(20);not null"                            bson:"username"`
	Content    string `json:"content"    gorm:"type:text;not null"                                   bson:"content"`
	Timestamp  int64  `json:"timestamp"  gorm:"not null;index:idx_replies,priority:2"                bson:"timestamp"`

	Question Question `json:"-" bson:"-" gorm:"foreignKey:QuestionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for QuestionReply.
func (QuestionReply) TableName() string { return "question_replies" }
