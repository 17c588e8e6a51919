package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps items in process. It backs tests and the memory driver.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]map[string]Item
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]map[string]Item)}
}

func (s *MemoryStore) Get(ctx context.Context, table, key string) (Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.tables[table][key]
	if !ok {
		return nil, nil
	}
	return cloneItem(item), nil
}

func (s *MemoryStore) Put(ctx context.Context, table string, item Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := item.Key()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[table]
	if !ok {
		t = make(map[string]Item)
		s.tables[table] = t
	}
	t[key] = cloneItem(item)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, table, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tables[table], key)
	return nil
}

// QueryByIndex ignores the index name; the condition alone selects items.
// Results are ordered by sort key (partition key when there is none), then by id.
func (s *MemoryStore) QueryByIndex(ctx context.Context, table, index string, cond KeyCondition) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cond.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	var items []Item
	for _, item := range s.tables[table] {
		if cond.Matches(item) {
			items = append(items, cloneItem(item))
		}
	}
	s.mu.RUnlock()

	orderBy := cond.SortKey
	if orderBy == "" {
		orderBy = cond.PartitionKey
	}
	sortItems(items, orderBy)
	return items, nil
}

// Scan returns every item in table ordered by id.
func (s *MemoryStore) Scan(ctx context.Context, table string) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	items := make([]Item, 0, len(s.tables[table]))
	for _, item := range s.tables[table] {
		items = append(items, cloneItem(item))
	}
	s.mu.RUnlock()

	sortItems(items, KeyAttribute)
	return items, nil
}

func sortItems(items []Item, attr string) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].StringAttr(attr), items[j].StringAttr(attr)
		if a != b {
			return a < b
		}
		return items[i].StringAttr(KeyAttribute) < items[j].StringAttr(KeyAttribute)
	})
}

func cloneItem(item Item) Item {
	out := make(Item, len(item))
	for k, v := range item {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = cloneValue(inner)
		}
		return m
	case Item:
		return cloneItem(t)
	case []any:
		s := make([]any, len(t))
		for i, inner := range t {
			s[i] = cloneValue(inner)
		}
		return s
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
