package db_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AhmadJamshaid/nust-marketplace/internal/db"
)

func TestFilterBuilder(t *testing.T) {
	t.Run("Eq", func(t *testing.T) {
		filter := db.NewFilter().Eq("conversation_id", "abc").Build()
		assert.Equal(t, bson.M{"conversation_id": "abc"}, filter)
	})

	t.Run("ChainedConditions", func(t *testing.T) {
		filter := db.NewFilter().
			Eq("conversation_id", "abc").
			Eq("read", false).
			Build()
		assert.Equal(t, bson.M{"conversation_id": "abc", "read": false}, filter)
	})

	t.Run("Ne", func(t *testing.T) {
		filter := db.NewFilter().Ne("sender", "System").Build()
		assert.Equal(t, bson.M{"sender": bson.M{"$ne": "System"}}, filter)
	})

	t.Run("InObjectIDs", func(t *testing.T) {
		ids := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}
		filter := db.NewFilter().InObjectIDs("_id", ids).Build()
		assert.Equal(t, bson.M{"_id": bson.M{"$in": ids}}, filter)
	})

	t.Run("ElemMatch", func(t *testing.T) {
		filter := db.NewFilter().
			ElemMatch("participants", bson.M{"address": "ali@seecs.edu.pk"}).
			Build()
		assert.Equal(t, bson.M{
			"participants": bson.M{"$elemMatch": bson.M{"address": "ali@seecs.edu.pk"}},
		}, filter)
	})

	t.Run("Or", func(t *testing.T) {
		filter := db.NewFilter().Or(
			bson.M{"seller": "a"},
			bson.M{"user": "a"},
		).Build()
		assert.Equal(t, bson.M{"$or": []bson.M{{"seller": "a"}, {"user": "a"}}}, filter)
	})

	t.Run("OrWithNoClausesAddsNothing", func(t *testing.T) {
		filter := db.NewFilter().Or().Build()
		assert.Equal(t, bson.M{}, filter)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, bson.M{}, db.Empty())
	})
}
