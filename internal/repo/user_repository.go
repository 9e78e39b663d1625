package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AhmadJamshaid/nust-marketplace/internal/db"
	"github.com/AhmadJamshaid/nust-marketplace/internal/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository reads public profiles written by the identity provider. The
// engine never creates or mutates users.
type UserRepository interface {
	GetByAddress(ctx context.Context, address string) (*model.User, error)
}

type userRepository struct {
	con       *mongo.Database
	mongoRepo *db.Repository[model.User]
}

func NewUserRepository(con *mongo.Database, repo *db.Repository[model.User]) UserRepository {
	return &userRepository{
		con:       con,
		mongoRepo: repo,
	}
}

func (r *userRepository) GetByAddress(ctx context.Context, address string) (*model.User, error) {
	if address == "" {
		return nil, ErrInvalidAddress
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := db.NewFilter().Eq("address", address).Build()
	user, err := r.mongoRepo.FindOne(ctx, filter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch user failed: %w", err)
	}
	return user, nil
}
