// Package reminders schedules appointment-reminder emails: jobs live in
// DynamoDB, due reminders flow through SQS, and a worker drains the queue.
package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/fixloop/fixloop-platform/pkg/logging"
)

// Jobs are kept two days past their send time so late workers can still
// see what happened, then the table TTL reaps them.
const jobRetention = 48 * time.Hour

// JobStatus is the lifecycle of a reminder job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusSent      JobStatus = "sent"
	JobStatusCancelled JobStatus = "cancelled"
)

// ErrJobNotFound indicates no job exists for the appointment.
var ErrJobNotFound = errors.New("reminders: job not found")

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Job is one scheduled reminder, keyed by appointment.
type Job struct {
	AppointmentID  string    `dynamodbav:"appointmentId" json:"appointmentId"`
	Status         JobStatus `dynamodbav:"status" json:"status"`
	ClientID       string    `dynamodbav:"clientId" json:"clientId"`
	ClientName     string    `dynamodbav:"clientName" json:"clientName"`
	ClientEmail    string    `dynamodbav:"clientEmail,omitempty" json:"clientEmail,omitempty"`
	TechnicianName string    `dynamodbav:"technicianName" json:"technicianName"`
	Date           string    `dynamodbav:"date" json:"date"`
	Time           string    `dynamodbav:"time" json:"time"`
	DeviceModel    string    `dynamodbav:"deviceModel" json:"deviceModel"`
	SendAt         string    `dynamodbav:"sendAt" json:"sendAt"` // RFC3339
	CreatedAt      string    `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt      string    `dynamodbav:"updatedAt" json:"updatedAt"`
	ExpiresAt      int64     `dynamodbav:"expiresAt,omitempty" json:"-"`
}

// JobStore persists reminder jobs to DynamoDB.
type JobStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

func NewJobStore(client dynamoAPI, tableName string, logger *logging.Logger) *JobStore {
	if client == nil {
		panic("reminders: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("reminders: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &JobStore{client: client, tableName: tableName, logger: logger}
}

// Put inserts a pending job. A second booking for the same appointment id
// is rejected by the condition expression.
func (s *JobStore) Put(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("reminders: job cannot be nil")
	}
	now := time.Now().UTC()
	job.Status = JobStatusPending
	job.CreatedAt = now.Format(time.RFC3339Nano)
	job.UpdatedAt = job.CreatedAt
	if job.ExpiresAt == 0 {
		sendAt, err := time.Parse(time.RFC3339, job.SendAt)
		if err != nil {
			return fmt.Errorf("reminders: bad sendAt %q: %w", job.SendAt, err)
		}
		job.ExpiresAt = sendAt.Add(jobRetention).Unix()
	}

	item, err := attributevalue.MarshalMap(job)
	if err != nil {
		return fmt.Errorf("reminders: marshal job: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(appointmentId)"),
	})
	if err != nil {
		return fmt.Errorf("reminders: persist job: %w", err)
	}
	return nil
}

// Get loads one job.
func (s *JobStore) Get(ctx context.Context, appointmentID string) (*Job, error) {
	if appointmentID == "" {
		return nil, errors.New("reminders: appointmentID required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"appointmentId": &types.AttributeValueMemberS{Value: appointmentID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("reminders: load job: %w", err)
	}
	if out.Item == nil {
		return nil, ErrJobNotFound
	}
	var job Job
	if err := attributevalue.UnmarshalMap(out.Item, &job); err != nil {
		return nil, fmt.Errorf("reminders: unmarshal job: %w", err)
	}
	return &job, nil
}

// MarkSent flips the job to sent once the email is out.
func (s *JobStore) MarkSent(ctx context.Context, appointmentID string) error {
	return s.setStatus(ctx, appointmentID, JobStatusSent)
}

// Cancel flips the job to cancelled so the worker skips it.
func (s *JobStore) Cancel(ctx context.Context, appointmentID string) error {
	return s.setStatus(ctx, appointmentID, JobStatusCancelled)
}

func (s *JobStore) setStatus(ctx context.Context, appointmentID string, status JobStatus) error {
	if appointmentID == "" {
		return errors.New("reminders: appointmentID required")
	}
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"appointmentId": &types.AttributeValueMemberS{Value: appointmentID},
		},
		UpdateExpression: aws.String("SET #status = :status, updatedAt = :updatedAt"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":    &types.AttributeValueMemberS{Value: string(status)},
			":updatedAt": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		ConditionExpression: aws.String("attribute_exists(appointmentId)"),
	})
	if err != nil {
		return fmt.Errorf("reminders: update job %s: %w", appointmentID, err)
	}
	return nil
}
