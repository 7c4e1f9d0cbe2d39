package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"brainbrawl/internal/model"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

type UserRepo interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.User, error)
	IncrementStats(ctx context.Context, id string, reward model.Reward) error
}

type userRepo struct {
	collection *mongo.Collection
}

func NewUserRepo(db *mongo.Database) UserRepo {
	return &userRepo{
		collection: db.Collection("users"),
	}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	existing, err := r.FindByUsername(ctx, user.Username)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return err
	}
	if existing != nil {
		return ErrUsernameTaken
	}
	_, err = r.collection.InsertOne(ctx, user)
	return err
}

func (r *userRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.collection.FindOne(ctx, map[string]interface{}{"username": username}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.collection.FindOne(ctx, map[string]interface{}{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	cursor, err := r.collection.Find(ctx, map[string]interface{}{
		"_id": map[string]interface{}{"$in": ids},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []model.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// IncrementStats applies an end-of-game reward delta atomically.
func (r *userRepo) IncrementStats(ctx context.Context, id string, reward model.Reward) error {
	won := 0
	if reward.Won {
		won = 1
	}
	res, err := r.collection.UpdateOne(ctx,
		map[string]interface{}{"_id": id},
		map[string]interface{}{
			"$inc": map[string]interface{}{
				"xp":          reward.XPDelta,
				"gems":        reward.GemDelta,
				"gamesPlayed": 1,
				"gamesWon":    won,
				"totalScore":  reward.ScoreDelta,
			},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
