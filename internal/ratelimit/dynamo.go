package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type dynamoAPI interface {
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoStore keeps buckets in a DynamoDB table keyed by rowKey.
type DynamoStore struct {
	client    dynamoAPI
	tableName string
}

// NewDynamoStore builds a store backed by the provided DynamoDB client.
func NewDynamoStore(client dynamoAPI, tableName string) *DynamoStore {
	if client == nil {
		panic("ratelimit: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("ratelimit: table name cannot be empty")
	}
	return &DynamoStore{client: client, tableName: tableName}
}

func (s *DynamoStore) key(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"rowKey": &types.AttributeValueMemberS{Value: key},
	}
}

func (s *DynamoStore) Get(ctx context.Context, key string) (*Bucket, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("ratelimit: get bucket: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrBucketNotFound
	}
	var bucket Bucket
	if err := attributevalue.UnmarshalMap(out.Item, &bucket); err != nil {
		return nil, fmt.Errorf("ratelimit: decode bucket: %w", err)
	}
	return &bucket, nil
}

func (s *DynamoStore) Create(ctx context.Context, bucket *Bucket) error {
	item, err := attributevalue.MarshalMap(bucket)
	if err != nil {
		return fmt.Errorf("ratelimit: marshal bucket: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(rowKey)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrBucketExists
		}
		return fmt.Errorf("ratelimit: put bucket: %w", err)
	}
	return nil
}

func (s *DynamoStore) Increment(ctx context.Context, key string, at time.Time) error {
	lastRequest, err := attributevalue.Marshal(at)
	if err != nil {
		return fmt.Errorf("ratelimit: marshal timestamp: %w", err)
	}
	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.tableName),
		Key:                 s.key(key),
		UpdateExpression:    aws.String("ADD #count :one SET #lastRequest = :lastRequest"),
		ConditionExpression: aws.String("attribute_exists(rowKey)"),
		ExpressionAttributeNames: map[string]string{
			"#count":       "count",
			"#lastRequest": "lastRequest",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one":         &types.AttributeValueMemberN{Value: "1"},
			":lastRequest": lastRequest,
		},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrBucketNotFound
		}
		return fmt.Errorf("ratelimit: increment bucket: %w", err)
	}
	return nil
}

var _ Store = (*DynamoStore)(nil)
