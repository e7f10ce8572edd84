package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type captureDynamo struct {
	puts    []*dynamodb.PutItemInput
	updates []*dynamodb.UpdateItemInput
	getItem map[string]types.AttributeValue
	getErr  error
}

func (c *captureDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	c.puts = append(c.puts, in)
	return &dynamodb.PutItemOutput{}, nil
}

func (c *captureDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	c.updates = append(c.updates, in)
	return &dynamodb.UpdateItemOutput{}, nil
}

func (c *captureDynamo) GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return &dynamodb.GetItemOutput{Item: c.getItem}, nil
}

func TestJobStorePutSetsLifecycleFields(t *testing.T) {
	client := &captureDynamo{}
	store := NewJobStore(client, "fixloop-reminders", nil)

	sendAt := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	job := &Job{
		AppointmentID: "appt-1",
		ClientEmail:   "ada@example.com",
		SendAt:        sendAt.Format(time.RFC3339),
	}
	if err := store.Put(context.Background(), job); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if job.Status != JobStatusPending {
		t.Fatalf("status = %s, want pending", job.Status)
	}
	if job.ExpiresAt != sendAt.Add(jobRetention).Unix() {
		t.Fatalf("ExpiresAt = %d, want sendAt + retention", job.ExpiresAt)
	}
	if len(client.puts) != 1 {
		t.Fatalf("expected 1 put, got %d", len(client.puts))
	}
	put := client.puts[0]
	if aws.ToString(put.TableName) != "fixloop-reminders" {
		t.Fatalf("table = %s", aws.ToString(put.TableName))
	}
	if aws.ToString(put.ConditionExpression) != "attribute_not_exists(appointmentId)" {
		t.Fatalf("condition = %s", aws.ToString(put.ConditionExpression))
	}

	var stored Job
	if err := attributevalue.UnmarshalMap(put.Item, &stored); err != nil {
		t.Fatalf("unmarshal stored item: %v", err)
	}
	if stored.AppointmentID != "appt-1" || stored.ClientEmail != "ada@example.com" {
		t.Fatalf("stored item %+v", stored)
	}
}

func TestJobStoreGetNotFound(t *testing.T) {
	client := &captureDynamo{}
	store := NewJobStore(client, "fixloop-reminders", nil)

	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("err = %v, want ErrJobNotFound", err)
	}
}

func TestJobStoreCancelUpdatesStatus(t *testing.T) {
	client := &captureDynamo{}
	store := NewJobStore(client, "fixloop-reminders", nil)

	if err := store.Cancel(context.Background(), "appt-1"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(client.updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(client.updates))
	}
	update := client.updates[0]
	status, ok := update.ExpressionAttributeValues[":status"].(*types.AttributeValueMemberS)
	if !ok || status.Value != string(JobStatusCancelled) {
		t.Fatalf("status value = %#v", update.ExpressionAttributeValues[":status"])
	}
}
