package model

// Catalog item kinds, matching the two boards the marketplace exposes.
const (
	CatalogListing = "listing"
	CatalogRequest = "request"
)

// CatalogItem is the read-only view of a listing or request supplied by the
// catalog boundary when a conversation is initiated from an item, and consulted
// by the inbox aggregator's legacy relevance fallback. The engine never writes
// catalog documents.
type CatalogItem struct {
	ID           string `json:"id" bson:"_id,omitempty"`
	Name         string `json:"name" bson:"name"`
	OwnerAddress string `json:"ownerAddress" bson:"owner_address"`
	OwnerName    string `json:"ownerName" bson:"owner_name"`
	Kind         string `json:"kind" bson:"kind"`
}
