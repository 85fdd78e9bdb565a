package cache

import (
	"sort"
	"strings"
)

// Collection names for cached entities
const (
	CollectionMe            = "me"
	CollectionProducts      = "products"
	CollectionLikedProducts = "liked-products"
	CollectionLikedProfiles = "liked-profiles"
	CollectionUsers         = "users"
	CollectionActivities    = "activities"
	CollectionSearches      = "searches"
)

// Key identifies one cached collection or record: a collection name plus
// an optional entity id and an optional params fingerprint.
type Key struct {
	Collection string
	ID         string
	Params     string
}

// NewKey returns a key for a whole collection.
func NewKey(collection string) Key {
	return Key{Collection: collection}
}

// WithID returns a copy of the key scoped to a single entity.
func (k Key) WithID(id string) Key {
	k.ID = id
	return k
}

// WithParams returns a copy of the key carrying a deterministic
// fingerprint of the query parameters.
func (k Key) WithParams(params map[string]string) Key {
	k.Params = Fingerprint(params)
	return k
}

// String renders the key in collection[:id][?params] form. Prefix
// matching for invalidation operates on this rendering.
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(k.Collection)
	if k.ID != "" {
		b.WriteString(":")
		b.WriteString(k.ID)
	}
	if k.Params != "" {
		b.WriteString("?")
		b.WriteString(k.Params)
	}
	return b.String()
}

// Fingerprint renders params as a stable sorted k=v string.
func Fingerprint(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, "&")
}

// MeKey is the cache key for the logged-in user record.
func MeKey() Key { return NewKey(CollectionMe) }

// ProductKey is the cache key for a single product record.
func ProductKey(productID string) Key {
	return NewKey(CollectionProducts).WithID(productID)
}

// ProductListKey is the cache key for the home feed id list.
func ProductListKey() Key { return NewKey(CollectionProducts) }

// LikedProductsKey is the cache key for the liked-products id list.
func LikedProductsKey() Key { return NewKey(CollectionLikedProducts) }

// LikedProfilesKey is the cache key for the liked-profiles id list.
func LikedProfilesKey() Key { return NewKey(CollectionLikedProfiles) }

// UserKey is the cache key for a single profile record.
func UserKey(userID string) Key {
	return NewKey(CollectionUsers).WithID(userID)
}

// ActivitiesKey is the cache key for the activity feed.
func ActivitiesKey() Key { return NewKey(CollectionActivities) }

// RecentSearchesKey is the cache key for the recent search terms.
func RecentSearchesKey() Key {
	return NewKey(CollectionSearches).WithID("recent")
}
