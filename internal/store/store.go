// Package store defines the key-value storage collaborator used by the
// repositories and its implementations: in-memory, DynamoDB and PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// KeyAttribute is the primary key attribute of every item.
const KeyAttribute = "id"

var (
	ErrInvalidItem      = errors.New("store: invalid item")
	ErrInvalidCondition = errors.New("store: invalid key condition")
)

// Item is a schemaless record. Values are JSON-compatible: string, float64,
// bool, nil, []any and map[string]any.
type Item map[string]any

// Key returns the item's primary key.
func (i Item) Key() (string, error) {
	id, ok := i[KeyAttribute].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("%w: missing string %q attribute", ErrInvalidItem, KeyAttribute)
	}
	return id, nil
}

// StringAttr returns the attribute as a string, or "" when absent or not a string.
func (i Item) StringAttr(name string) string {
	s, _ := i[name].(string)
	return s
}

// KeyCondition selects items from a secondary index: the partition attribute
// must equal PartitionValue and, when SortKey is set, the sort attribute must
// begin with SortPrefix.
type KeyCondition struct {
	PartitionKey   string
	PartitionValue string
	SortKey        string
	SortPrefix     string
}

var attributeName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks that attribute names are plain identifiers.
func (c KeyCondition) Validate() error {
	if !attributeName.MatchString(c.PartitionKey) {
		return fmt.Errorf("%w: partition key %q", ErrInvalidCondition, c.PartitionKey)
	}
	if c.SortKey != "" && !attributeName.MatchString(c.SortKey) {
		return fmt.Errorf("%w: sort key %q", ErrInvalidCondition, c.SortKey)
	}
	return nil
}

// Matches evaluates the condition against an item.
func (c KeyCondition) Matches(item Item) bool {
	if item.StringAttr(c.PartitionKey) != c.PartitionValue {
		return false
	}
	if c.SortKey == "" {
		return true
	}
	sk, ok := item[c.SortKey].(string)
	return ok && strings.HasPrefix(sk, c.SortPrefix)
}

// IndexSpec describes a secondary index for backends that create their own.
type IndexSpec struct {
	Name         string
	PartitionKey string
	SortKey      string
}

// Store is the storage collaborator. Get returns (nil, nil) for a missing key.
// Retry policy, if any, belongs to the implementation.
type Store interface {
	Get(ctx context.Context, table, key string) (Item, error)
	Put(ctx context.Context, table string, item Item) error
	Delete(ctx context.Context, table, key string) error
	QueryByIndex(ctx context.Context, table, index string, cond KeyCondition) ([]Item, error)
	Scan(ctx context.Context, table string) ([]Item, error)
}
