package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDDBClient is an in-memory DynamoDB fake that understands the key
// condition expressions DynamoStore emits and pages results.
type mockDDBClient struct {
	mu       sync.RWMutex
	tables   map[string]map[string]map[string]types.AttributeValue
	pageSize int
	queries  int
	err      error
}

func newMockDDBClient(pageSize int) *mockDDBClient {
	return &mockDDBClient{
		tables:   make(map[string]map[string]map[string]types.AttributeValue),
		pageSize: pageSize,
	}
}

func attrS(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (m *mockDDBClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	item := m.tables[*params.TableName][attrS(params.Key, "id")]
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (m *mockDDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.tables[*params.TableName]
	if !ok {
		t = make(map[string]map[string]types.AttributeValue)
		m.tables[*params.TableName] = t
	}
	t[attrS(params.Item, "id")] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	delete(m.tables[*params.TableName], attrS(params.Key, "id"))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *mockDDBClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.Lock()
	m.queries++
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}

	pk := params.ExpressionAttributeNames["#pk"]
	pv := params.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS).Value
	sk, sv := "", ""
	if strings.Contains(*params.KeyConditionExpression, "begins_with(#sk, :sk)") {
		sk = params.ExpressionAttributeNames["#sk"]
		sv = params.ExpressionAttributeValues[":sk"].(*types.AttributeValueMemberS).Value
	}

	var matched []map[string]types.AttributeValue
	for _, item := range m.tables[*params.TableName] {
		if attrS(item, pk) != pv {
			continue
		}
		if sk != "" && !strings.HasPrefix(attrS(item, sk), sv) {
			continue
		}
		matched = append(matched, item)
	}
	items, last := m.page(matched, params.ExclusiveStartKey)
	return &dynamodb.QueryOutput{Items: items, LastEvaluatedKey: last}, nil
}

func (m *mockDDBClient) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	var all []map[string]types.AttributeValue
	for _, item := range m.tables[*params.TableName] {
		all = append(all, item)
	}
	items, last := m.page(all, params.ExclusiveStartKey)
	return &dynamodb.ScanOutput{Items: items, LastEvaluatedKey: last}, nil
}

func (m *mockDDBClient) page(items []map[string]types.AttributeValue, start map[string]types.AttributeValue) ([]map[string]types.AttributeValue, map[string]types.AttributeValue) {
	sort.Slice(items, func(i, j int) bool { return attrS(items[i], "id") < attrS(items[j], "id") })
	if start != nil {
		after := attrS(start, "id")
		i := sort.Search(len(items), func(i int) bool { return attrS(items[i], "id") > after })
		items = items[i:]
	}
	if len(items) <= m.pageSize {
		return items, nil
	}
	items = items[:m.pageSize]
	return items, map[string]types.AttributeValue{"id": items[len(items)-1]["id"]}
}

func TestDynamoStore_GetPutDelete(t *testing.T) {
	ctx := context.Background()
	client := newMockDDBClient(10)
	s := NewDynamoStore(client)

	item, err := s.Get(ctx, "places", "a")
	require.NoError(t, err)
	assert.Nil(t, item)

	require.NoError(t, s.Put(ctx, "places", Item{
		"id":        "a",
		"name":      "Ritual",
		"location":  map[string]any{"latitude": 37.776, "longitude": -122.417},
		"amenities": []any{"wifi", "outlets"},
	}))

	got, err := s.Get(ctx, "places", "a")
	require.NoError(t, err)
	assert.Equal(t, "Ritual", got.StringAttr("name"))
	assert.Equal(t, map[string]any{"latitude": 37.776, "longitude": -122.417}, got["location"])
	assert.Equal(t, []any{"wifi", "outlets"}, got["amenities"])

	require.NoError(t, s.Delete(ctx, "places", "a"))
	got, err = s.Get(ctx, "places", "a")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDynamoStore_QueryByIndexFollowsPages(t *testing.T) {
	ctx := context.Background()
	client := newMockDDBClient(1)
	s := NewDynamoStore(client)
	seedPlaces(t, s)

	items, err := s.QueryByIndex(ctx, "places", "geohash-index", geohashCondition("9q8yy"))
	require.NoError(t, err)

	var ids []string
	for _, item := range items {
		ids = append(ids, item.StringAttr("id"))
	}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, 3, client.queries, "one query per page")
}

func TestDynamoStore_QueryByIndexPartitionOnly(t *testing.T) {
	ctx := context.Background()
	s := NewDynamoStore(newMockDDBClient(10))
	seedPlaces(t, s)

	items, err := s.QueryByIndex(ctx, "places", "geohash-index", KeyCondition{PartitionKey: "geohashPrefix", PartitionValue: "9q9"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "d", items[0].StringAttr("id"))
}

func TestDynamoStore_Scan(t *testing.T) {
	ctx := context.Background()
	s := NewDynamoStore(newMockDDBClient(3))
	seedPlaces(t, s)

	items, err := s.Scan(ctx, "places")
	require.NoError(t, err)
	assert.Len(t, items, 4)
}

func TestDynamoStore_Errors(t *testing.T) {
	ctx := context.Background()
	client := newMockDDBClient(10)
	s := NewDynamoStore(client)
	client.err = errors.New("throttled")

	_, err := s.Get(ctx, "places", "a")
	assert.ErrorIs(t, err, client.err)

	err = s.Put(ctx, "places", Item{"id": "a"})
	assert.ErrorIs(t, err, client.err)

	_, err = s.QueryByIndex(ctx, "places", "geohash-index", geohashCondition("9q8yy"))
	assert.ErrorIs(t, err, client.err)

	_, err = s.Scan(ctx, "places")
	assert.ErrorIs(t, err, client.err)

	err = s.Put(ctx, "places", Item{"name": "no id"})
	assert.ErrorIs(t, err, ErrInvalidItem)
}
