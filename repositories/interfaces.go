package repositories

import (
	"context"
	"errors"

	"minitwit/models"
)

// ErrUsernameTaken is returned by UserRepository.Create when the username
// already exists.
var ErrUsernameTaken = errors.New("username is already taken")

type UserRepository interface {
	// FindByUsername and FindByID return nil when no user matches.
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, userID int64) (*models.User, error)
	Exists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Follow(ctx context.Context, whoID, whomID int64) error
	Unfollow(ctx context.Context, whoID, whomID int64) error
	IsFollowing(ctx context.Context, whoID, whomID int64) (bool, error)
}

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	PublicTimeline(ctx context.Context, limit int) ([]models.TimelineMessage, error)
	PersonalTimeline(ctx context.Context, userID int64, limit int) ([]models.TimelineMessage, error)
	UserTimeline(ctx context.Context, authorID int64, limit int) ([]models.TimelineMessage, error)
}
