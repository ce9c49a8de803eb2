package redis

import "github.com/redis/rueidis"

// NewStoreForTest wraps the provided rueidis client (test-only).
func NewStoreForTest(c rueidis.Client, flavor Flavor) *Store {
	return &Store{client: c, flavor: flavor}
}
