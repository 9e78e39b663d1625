package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the public profile document written by the identity provider at
// registration time. The engine only ever reads it; the address and display
// name it carries are consumed when constructing conversation metadata.
type User struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Address   string             `json:"address" bson:"address"`
	Name      string             `json:"name" bson:"name"`
	Whatsapp  string             `json:"whatsapp" bson:"whatsapp"`
	Verified  bool               `json:"verified" bson:"verified"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}
