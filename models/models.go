package models

// User represents a row of the user table.
type User struct {
	UserID   int64  `db:"user_id"`
	Username string `db:"username"`
	Email    string `db:"email"`
	PwHash   string `db:"pw_hash"`
}

// Message represents a row of the message table.
type Message struct {
	MessageID int64  `db:"message_id"`
	AuthorID  int64  `db:"author_id"`
	Text      string `db:"text"`
	PubDate   int64  `db:"pub_date"`
}

// Follower means WhoID follows WhomID.
type Follower struct {
	WhoID  int64 `db:"who_id"`
	WhomID int64 `db:"whom_id"`
}

// TimelineMessage is a message joined with its author, as shown on timelines.
type TimelineMessage struct {
	MessageID int64  `db:"message_id"`
	AuthorID  int64  `db:"author_id"`
	Text      string `db:"text"`
	PubDate   int64  `db:"pub_date"`
	Username  string `db:"username"`
	Email     string `db:"email"`
}
