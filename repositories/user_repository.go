package repositories

import (
	"context"
	"fmt"

	"minitwit/database"
	"minitwit/models"
)

type userRepository struct {
	db database.Handle
}

func NewUserRepository(db database.Handle) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := database.QueryOne[models.User](ctx, r.db,
		`select user_id, username, email, pw_hash from "user" where username = :username`,
		database.Params{"username": username})
	if err != nil {
		return nil, fmt.Errorf("finding user %q: %w", username, err)
	}
	return user, nil
}

func (r *userRepository) FindByID(ctx context.Context, userID int64) (*models.User, error) {
	user, err := database.QueryOne[models.User](ctx, r.db,
		`select user_id, username, email, pw_hash from "user" where user_id = :userid`,
		database.Params{"userid": userID})
	if err != nil {
		return nil, fmt.Errorf("finding user %d: %w", userID, err)
	}
	return user, nil
}

// Exists checks for the username before registration. The unique constraint
// on "user".username still catches two registrations racing past this check.
func (r *userRepository) Exists(ctx context.Context, username string) (bool, error) {
	id, err := database.QueryOne[int64](ctx, r.db,
		`select user_id from "user" where username = :username`,
		database.Params{"username": username})
	if err != nil {
		return false, fmt.Errorf("checking username %q: %w", username, err)
	}
	return id != nil, nil
}

// Create inserts user. user.UserID is not filled in.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	_, err := database.Exec(ctx, r.db,
		`insert into "user" (username, email, pw_hash) values (:username, :email, :pwhash)`,
		database.Params{
			"username": user.Username,
			"email":    user.Email,
			"pwhash":   user.PwHash,
		})
	if database.IsUniqueViolation(err) {
		return ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("creating user %q: %w", user.Username, err)
	}
	return nil
}

// Follow is idempotent: following twice leaves a single follower row.
func (r *userRepository) Follow(ctx context.Context, whoID, whomID int64) error {
	_, err := database.Exec(ctx, r.db,
		`insert into follower (who_id, whom_id) values (:whoid, :whomid)`,
		database.Params{"whoid": whoID, "whomid": whomID})
	if err != nil && !database.IsUniqueViolation(err) {
		return fmt.Errorf("following %d -> %d: %w", whoID, whomID, err)
	}
	return nil
}

func (r *userRepository) Unfollow(ctx context.Context, whoID, whomID int64) error {
	_, err := database.Exec(ctx, r.db,
		`delete from follower where who_id = :whoid and whom_id = :whomid`,
		database.Params{"whoid": whoID, "whomid": whomID})
	if err != nil {
		return fmt.Errorf("unfollowing %d -> %d: %w", whoID, whomID, err)
	}
	return nil
}

func (r *userRepository) IsFollowing(ctx context.Context, whoID, whomID int64) (bool, error) {
	follow, err := database.QueryOne[models.Follower](ctx, r.db,
		`select who_id, whom_id from follower where follower.who_id = :whoid and follower.whom_id = :whomid`,
		database.Params{"whoid": whoID, "whomid": whomID})
	if err != nil {
		return false, fmt.Errorf("checking follow %d -> %d: %w", whoID, whomID, err)
	}
	return follow != nil, nil
}
