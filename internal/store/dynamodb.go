package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoClient is the subset of *dynamodb.Client the store needs.
type DynamoClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoStore implements Store on DynamoDB.
//
// Tables use "id" (S) as partition key. The geohash index is a GSI with
// partition key geohashPrefix (S) and sort key geohash (S):
//
//	aws dynamodb create-table \
//	  --table-name places \
//	  --attribute-definitions AttributeName=id,AttributeType=S \
//	      AttributeName=geohashPrefix,AttributeType=S AttributeName=geohash,AttributeType=S \
//	  --key-schema AttributeName=id,KeyType=HASH \
//	  --global-secondary-indexes 'IndexName=geohash-index,KeySchema=[{AttributeName=geohashPrefix,KeyType=HASH},{AttributeName=geohash,KeyType=RANGE}],Projection={ProjectionType=ALL}' \
//	  --billing-mode PAY_PER_REQUEST
type DynamoStore struct {
	client DynamoClient
}

// NewDynamoStore creates a DynamoDB-backed store.
func NewDynamoStore(client DynamoClient) *DynamoStore {
	return &DynamoStore{client: client}
}

func keyOf(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		KeyAttribute: &types.AttributeValueMemberS{Value: key},
	}
}

func (s *DynamoStore) Get(ctx context.Context, table, key string) (Item, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       keyOf(key),
	})
	if err != nil {
		return nil, fmt.Errorf("store: failed to get item %s/%s: %w", table, key, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return decodeItem(out.Item)
}

func (s *DynamoStore) Put(ctx context.Context, table string, item Item) error {
	if _, err := item.Key(); err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(map[string]any(item))
	if err != nil {
		return fmt.Errorf("store: failed to marshal item: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("store: failed to put item into %s: %w", table, err)
	}
	return nil
}

func (s *DynamoStore) Delete(ctx context.Context, table, key string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key:       keyOf(key),
	})
	if err != nil {
		return fmt.Errorf("store: failed to delete item %s/%s: %w", table, key, err)
	}
	return nil
}

// QueryByIndex queries a GSI, following LastEvaluatedKey until all pages are read.
func (s *DynamoStore) QueryByIndex(ctx context.Context, table, index string, cond KeyCondition) ([]Item, error) {
	if err := cond.Validate(); err != nil {
		return nil, err
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(table),
		IndexName:              aws.String(index),
		KeyConditionExpression: aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{
			"#pk": cond.PartitionKey,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: cond.PartitionValue},
		},
	}
	if cond.SortKey != "" {
		input.KeyConditionExpression = aws.String("#pk = :pk AND begins_with(#sk, :sk)")
		input.ExpressionAttributeNames["#sk"] = cond.SortKey
		input.ExpressionAttributeValues[":sk"] = &types.AttributeValueMemberS{Value: cond.SortPrefix}
	}

	var items []Item
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("store: failed to query %s/%s: %w", table, index, err)
		}
		for _, raw := range out.Items {
			item, err := decodeItem(raw)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (s *DynamoStore) Scan(ctx context.Context, table string) ([]Item, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(table)}

	var items []Item
	for {
		out, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("store: failed to scan %s: %w", table, err)
		}
		for _, raw := range out.Items {
			item, err := decodeItem(raw)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func decodeItem(raw map[string]types.AttributeValue) (Item, error) {
	var m map[string]any
	if err := attributevalue.UnmarshalMap(raw, &m); err != nil {
		return nil, fmt.Errorf("store: failed to unmarshal item: %w", err)
	}
	return Item(m), nil
}
