package repositories

import (
	"context"
	"fmt"

	"minitwit/database"
	"minitwit/models"
)

const timelineColumns = `message.message_id, message.author_id, message.text, message.pub_date,
	"user".username, "user".email`

type messageRepository struct {
	db database.Handle
}

func NewMessageRepository(db database.Handle) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	_, err := database.Exec(ctx, r.db,
		`insert into message (author_id, text, pub_date) values (:authorid, :text, :pubdate)`,
		database.Params{
			"authorid": message.AuthorID,
			"text":     message.Text,
			"pubdate":  message.PubDate,
		})
	if err != nil {
		return fmt.Errorf("creating message: %w", err)
	}
	return nil
}

func (r *messageRepository) PublicTimeline(ctx context.Context, limit int) ([]models.TimelineMessage, error) {
	messages, err := database.Query[models.TimelineMessage](ctx, r.db, `
		select `+timelineColumns+`
		from message, "user"
		where message.author_id = "user".user_id
		order by message.pub_date desc, message.message_id desc
		limit :limit`,
		database.Params{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("loading public timeline: %w", err)
	}
	return messages, nil
}

// PersonalTimeline returns the user's own messages and those of everyone they follow.
func (r *messageRepository) PersonalTimeline(ctx context.Context, userID int64, limit int) ([]models.TimelineMessage, error) {
	messages, err := database.Query[models.TimelineMessage](ctx, r.db, `
		select `+timelineColumns+`
		from message, "user"
		where message.author_id = "user".user_id and (
			"user".user_id = :userid or
			"user".user_id in (select whom_id from follower where who_id = :userid))
		order by message.pub_date desc, message.message_id desc
		limit :limit`,
		database.Params{"userid": userID, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("loading timeline for user %d: %w", userID, err)
	}
	return messages, nil
}

func (r *messageRepository) UserTimeline(ctx context.Context, authorID int64, limit int) ([]models.TimelineMessage, error) {
	messages, err := database.Query[models.TimelineMessage](ctx, r.db, `
		select `+timelineColumns+`
		from message, "user"
		where "user".user_id = message.author_id and "user".user_id = :userid
		order by message.pub_date desc, message.message_id desc
		limit :limit`,
		database.Params{"userid": authorID, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("loading messages of user %d: %w", authorID, err)
	}
	return messages, nil
}
