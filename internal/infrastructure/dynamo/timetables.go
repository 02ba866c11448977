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

// TimetableRepo provides typed DynamoDB operations for the timetables
// table. One timetable per homeroom class, keyed by class_id.
type TimetableRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTimetableRepo(client *dynamodb.Client, tableName string) *TimetableRepo {
	return &TimetableRepo{client: client, tableName: tableName}
}

func (r *TimetableRepo) Put(ctx context.Context, t *domain.Timetable) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal timetable: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *TimetableRepo) Get(ctx context.Context, classID string) (*domain.Timetable, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("class_id", classID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("timetable not found: %w", domain.ErrNotFound)
	}
	var t domain.Timetable
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListBySchool returns every timetable in the school. The teacher-schedule
// lookup walks all of them on every call; school-scale data keeps that
// acceptable.
func (r *TimetableRepo) ListBySchool(ctx context.Context, schoolID string) ([]domain.Timetable, error) {
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
	var timetables []domain.Timetable
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &timetables); err != nil {
		return nil, err
	}
	return timetables, nil
}
