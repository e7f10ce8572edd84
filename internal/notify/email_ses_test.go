package notify

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
)

type captureSES struct {
	inputs []*sesv2.SendEmailInput
}

func (c *captureSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	c.inputs = append(c.inputs, params)
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSenderBuildsRequest(t *testing.T) {
	ses := &captureSES{}
	sender := NewSESSender(ses, SESConfig{FromEmail: "no-reply@fixloop.dev"}, nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "ada@example.com",
		ToName:  "Ada Chen",
		Subject: "Repair booked",
		Body:    "see you soon",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if len(ses.inputs) != 1 {
		t.Fatalf("expected 1 call, got %d", len(ses.inputs))
	}
	input := ses.inputs[0]
	if got := aws.ToString(input.FromEmailAddress); got != "FixLoop <no-reply@fixloop.dev>" {
		t.Fatalf("from = %q", got)
	}
	if input.Destination.ToAddresses[0] != "ada@example.com" {
		t.Fatalf("to = %v", input.Destination.ToAddresses)
	}
	if aws.ToString(input.Content.Simple.Subject.Data) != "Repair booked" {
		t.Fatal("subject not set")
	}
	if input.Content.Simple.Body.Text == nil || input.Content.Simple.Body.Html != nil {
		t.Fatal("expected text-only body")
	}
}

func TestNewSESSenderRequiresClient(t *testing.T) {
	if NewSESSender(nil, SESConfig{}, nil) != nil {
		t.Fatal("nil client should yield nil sender")
	}
}
