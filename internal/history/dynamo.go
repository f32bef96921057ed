package history

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"app/internal/model"
)

type dynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoStore appends publish records to a DynamoDB table keyed by
// idempotency_key.
type DynamoStore struct {
	db        dynamoAPI
	tableName string
}

func NewDynamoStore(db dynamoAPI, tableName string) *DynamoStore {
	return &DynamoStore{db: db, tableName: tableName}
}

func (s *DynamoStore) RecordPost(ctx context.Context, rec model.PublishHistoryRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshaling history record: %w", err)
	}
	if _, err := s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("putting history record: %w", err)
	}
	return nil
}
