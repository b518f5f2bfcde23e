package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/fairdatause/qualify-api/internal/domain"
)

// API is the subset of *dynamodb.Client the repository calls.
type API interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// ApplicantRepo provides typed DynamoDB operations for the applicants table.
// Emails are stored normalized, so the email GSI matches case-insensitively.
type ApplicantRepo struct {
	client    API
	tableName string
}

func NewApplicantRepo(client API, tableName string) *ApplicantRepo {
	return &ApplicantRepo{client: client, tableName: tableName}
}

func (r *ApplicantRepo) Create(ctx context.Context, a *domain.Applicant) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal applicant: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": fieldApplicantID,
		},
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("applicant %s already stored: %w", a.ApplicantID, domain.ErrConflict)
	}
	return err
}

func (r *ApplicantRepo) Get(ctx context.Context, applicantID string) (*domain.Applicant, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldApplicantID, applicantID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("applicant not found: %w", domain.ErrNotFound)
	}
	var a domain.Applicant
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByContact returns the oldest applicant matching email or phone.
func (r *ApplicantRepo) FindByContact(ctx context.Context, email, phone string) (*domain.Applicant, error) {
	var found *domain.Applicant
	for _, q := range []struct{ index, attr, value string }{
		{indexEmail, fieldEmail, email},
		{indexPhone, fieldPhone, phone},
	} {
		if q.value == "" {
			continue
		}
		a, err := r.queryGSI(ctx, q.index, q.attr, q.value)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if found == nil || a.CreatedAt.Before(found.CreatedAt) {
			found = a
		}
	}
	if found == nil {
		return nil, fmt.Errorf("applicant not found: %w", domain.ErrNotFound)
	}
	return found, nil
}

func (r *ApplicantRepo) RecordContractorRequest(ctx context.Context, applicantID string, at time.Time) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldLastContractorRequestAt: at,
		fieldUpdatedAt:               at,
	})
	if err != nil {
		return err
	}
	ue.addCounter(fieldContractorRequests)
	ue.Names["#id"] = fieldApplicantID

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldApplicantID, applicantID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("applicant not found: %w", domain.ErrNotFound)
	}
	return err
}

func (r *ApplicantRepo) queryGSI(ctx context.Context, index, attr, value string) (*domain.Applicant, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		ScanIndexForward:          aws.Bool(true),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("applicant not found: %w", domain.ErrNotFound)
	}
	var a domain.Applicant
	if err := attributevalue.UnmarshalMap(out.Items[0], &a); err != nil {
		return nil, err
	}
	return &a, nil
}
