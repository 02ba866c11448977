package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/Ccreature09/poko-server/internal/domain"
)

// ClassRepo provides typed DynamoDB operations for the classes table.
type ClassRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewClassRepo(client *dynamodb.Client, tableName string) *ClassRepo {
	return &ClassRepo{client: client, tableName: tableName}
}

func (r *ClassRepo) Put(ctx context.Context, c *domain.Class) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal class: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ClassRepo) Get(ctx context.Context, classID string) (*domain.Class, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("class_id", classID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("class not found: %w", domain.ErrNotFound)
	}
	var c domain.Class
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ClassRepo) ListBySchool(ctx context.Context, schoolID string) ([]domain.Class, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("school_id-index"),
		KeyConditionExpression: aws.String("school_id = :sid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sid": &types.AttributeValueMemberS{Value: schoolID},
		},
	})
	if err != nil {
		return nil, err
	}
	var classes []domain.Class
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &classes); err != nil {
		return nil, err
	}
	return classes, nil
}
