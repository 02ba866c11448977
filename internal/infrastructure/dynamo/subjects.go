package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/Ccreature09/poko-server/internal/domain"
)

// SubjectRepo provides typed DynamoDB operations for the subjects table.
type SubjectRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSubjectRepo(client *dynamodb.Client, tableName string) *SubjectRepo {
	return &SubjectRepo{client: client, tableName: tableName}
}

func (r *SubjectRepo) Put(ctx context.Context, s *domain.Subject) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal subject: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *SubjectRepo) Get(ctx context.Context, subjectID string) (*domain.Subject, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("subject_id", subjectID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("subject not found: %w", domain.ErrNotFound)
	}
	var s domain.Subject
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
