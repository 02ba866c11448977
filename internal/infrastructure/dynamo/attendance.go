package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/Ccreature09/poko-server/internal/domain"
)

// AttendanceRepo provides typed DynamoDB operations for the attendance
// table. Records carry a session_key attribute (class#subject#date#period)
// backing the upsert lookup GSI.
type AttendanceRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAttendanceRepo(client *dynamodb.Client, tableName string) *AttendanceRepo {
	return &AttendanceRepo{client: client, tableName: tableName}
}

func (r *AttendanceRepo) Put(ctx context.Context, rec *domain.AttendanceRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal attendance record: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *AttendanceRepo) Update(ctx context.Context, attendanceID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("attendance_id", attendanceID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

// ListBySession returns every record already stored for one scheduled
// session. The recorder indexes the result by student id to decide
// update-vs-insert.
func (r *AttendanceRepo) ListBySession(ctx context.Context, sessionKey string) ([]domain.AttendanceRecord, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("session_key-index"),
		KeyConditionExpression: aws.String("session_key = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sk": &types.AttributeValueMemberS{Value: sessionKey},
		},
	})
	if err != nil {
		return nil, err
	}
	var records []domain.AttendanceRecord
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ListByStudentRange returns a student's records with date in [from, to],
// paging through the student_id-date GSI.
func (r *AttendanceRepo) ListByStudentRange(ctx context.Context, studentID, from, to string) ([]domain.AttendanceRecord, error) {
	return r.queryRange(ctx, "student_id-date-index", "student_id", studentID, from, to)
}

// ListBySchoolRange returns all of a school's records with date in
// [from, to], paging through the school_id-date GSI.
func (r *AttendanceRepo) ListBySchoolRange(ctx context.Context, schoolID, from, to string) ([]domain.AttendanceRecord, error) {
	return r.queryRange(ctx, "school_id-date-index", "school_id", schoolID, from, to)
}

func (r *AttendanceRepo) queryRange(ctx context.Context, index, hashAttr, hashValue, from, to string) ([]domain.AttendanceRecord, error) {
	var records []domain.AttendanceRecord
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String(index),
			KeyConditionExpression: aws.String(fmt.Sprintf("%s = :h AND #date BETWEEN :from AND :to", hashAttr)),
			ExpressionAttributeNames: map[string]string{
				"#date": "date",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":h":    &types.AttributeValueMemberS{Value: hashValue},
				":from": &types.AttributeValueMemberS{Value: from},
				":to":   &types.AttributeValueMemberS{Value: to},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.AttendanceRecord
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		records = append(records, page...)
		if out.LastEvaluatedKey == nil {
			return records, nil
		}
		startKey = out.LastEvaluatedKey
	}
}
