package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AhmadJamshaid/nust-marketplace/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// listingDoc and requestDoc mirror the documents the catalog writes; the
// messaging engine only reads them to resolve an item's owner.
type listingDoc struct {
	ID         primitive.ObjectID `bson:"_id"`
	Name       string             `bson:"name"`
	Seller     string             `bson:"seller"`
	SellerName string             `bson:"seller_name"`
}

type requestDoc struct {
	ID       primitive.ObjectID `bson:"_id"`
	Text     string             `bson:"text"`
	User     string             `bson:"user"`
	UserName string             `bson:"user_name"`
}

type catalogRepository struct {
	listings *mongo.Collection
	requests *mongo.Collection
	logger   *zap.Logger
}

// CatalogRepository is the read-only boundary with the listing/request catalog.
// It resolves an item id to its human label and owner, for item-initiated
// conversations and for the legacy inbox relevance fallback.
type CatalogRepository interface {
	GetItem(ctx context.Context, itemID string) (*model.CatalogItem, error)
}

func NewCatalogRepository(con *mongo.Database, listingsCollection, requestsCollection string, logger *zap.Logger) CatalogRepository {
	return &catalogRepository{
		listings: con.Collection(listingsCollection),
		requests: con.Collection(requestsCollection),
		logger:   logger,
	}
}

func (r *catalogRepository) GetItem(ctx context.Context, itemID string) (*model.CatalogItem, error) {
	if itemID == "" {
		return nil, ErrInvalidConversationID
	}

	objectID, err := primitive.ObjectIDFromHex(itemID)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog item id: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var listing listingDoc
	err = r.listings.FindOne(ctx, bson.M{"_id": objectID}).Decode(&listing)
	if err == nil {
		return &model.CatalogItem{
			ID:           listing.ID.Hex(),
			Name:         listing.Name,
			OwnerAddress: listing.Seller,
			OwnerName:    listing.SellerName,
			Kind:         model.CatalogListing,
		}, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("fetch listing failed: %w", err)
	}

	var request requestDoc
	err = r.requests.FindOne(ctx, bson.M{"_id": objectID}).Decode(&request)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Debug("catalog item not found", zap.String("item_id", itemID))
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch request failed: %w", err)
	}

	return &model.CatalogItem{
		ID:           request.ID.Hex(),
		Name:         request.Text,
		OwnerAddress: request.User,
		OwnerName:    request.UserName,
		Kind:         model.CatalogRequest,
	}, nil
}
