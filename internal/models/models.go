package models

type User struct {
	ID          string `json:"id,omitempty"`
	Email       string `json:"email,omitempty"`
	Password    string `json:"password,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	IsAdmin     bool   `json:"is_admin"`
	Phone       string `json:"phone,omitempty"`
	Niche       string `json:"niche,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type Session struct {
	ID        string `json:"id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	IpAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent"`
	UserId    string `json:"user_id"`
}

type ChatCategory struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

type Comment struct {
	ID        string `json:"id,omitempty"`
	MessageId string `json:"message_id,omitempty"`
	Author    User   `json:"author"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at,omitempty"`
}

type Message struct {
	ID         string    `json:"id,omitempty"`
	Author     User      `json:"author"`
	Content    string    `json:"content"`
	ImageURL   string    `json:"image_url,omitempty"`
	IsPinned   bool      `json:"is_pinned"`
	LikeCount  int       `json:"like_count"`
	CategoryId string    `json:"category_id,omitempty"`
	Comments   []Comment `json:"comments,omitempty"`
	UpdatedAt  string    `json:"updated_at,omitempty"`
	CreatedAt  string    `json:"created_at,omitempty"`
}

type PollOption struct {
	ID     string `json:"id,omitempty"`
	PollId string `json:"poll_id,omitempty"`
	Text   string `json:"text"`
	Votes  int    `json:"votes,omitempty"`
}

type PollVote struct {
	ID       string `json:"id,omitempty"`
	OptionId string `json:"option_id"`
	UserId   string `json:"user_id"`
}

type Poll struct {
	ID         string       `json:"id,omitempty"`
	Author     User         `json:"author"`
	Question   string       `json:"question"`
	CategoryId string       `json:"category_id,omitempty"`
	ExpiresAt  string       `json:"expires_at,omitempty"`
	IsActive   bool         `json:"is_active"`
	Options    []PollOption `json:"options,omitempty"`
	TotalVotes int          `json:"total_votes"`
	UserVote   string       `json:"user_vote,omitempty"`
	CreatedAt  string       `json:"created_at,omitempty"`
}

type Webhook struct {
	ID        string `json:"id,omitempty"`
	Type      string `json:"type"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at,omitempty"`
}

type WSMessage struct {
	Type    string `json:"type"`
	Content any    `json:"content"`
}

// ChangeEvent is published on the realtime channel whenever a row in a
// watched collection is inserted, updated or deleted.
type ChangeEvent struct {
	Table      string `json:"table"`
	Event      string `json:"event"`
	ID         string `json:"id"`
	CategoryId string `json:"category_id,omitempty"`
}

const (
	EventInsert = "insert"
	EventUpdate = "update"
	EventDelete = "delete"
)
