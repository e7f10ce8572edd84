package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/fixloop/fixloop-platform/pkg/logging"
)

// S3API is the subset of the S3 client used by the exporter.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// DisputeRecord is the archived account of a resolved dispute.
type DisputeRecord struct {
	AppointmentID  string    `json:"appointment_id"`
	ClientID       string    `json:"client_id"`
	ClientName     string    `json:"client_name"`
	TechnicianID   string    `json:"technician_id"`
	TechnicianName string    `json:"technician_name"`
	Resolution     string    `json:"resolution"`
	Note           string    `json:"note,omitempty"`
	ModeratorID    string    `json:"moderator_id"`
	ResolvedAt     time.Time `json:"resolved_at"`
}

// Exporter archives resolved-dispute records to S3. With no bucket
// configured every call is a no-op.
type Exporter struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
}

func NewExporter(s3Client S3API, bucket string, logger *logging.Logger) *Exporter {
	if logger == nil {
		logger = logging.Default()
	}
	return &Exporter{bucket: bucket, s3Client: s3Client, logger: logger}
}

// Enabled reports whether the exporter has somewhere to write.
func (e *Exporter) Enabled() bool {
	return e != nil && e.bucket != "" && e.s3Client != nil
}

// Export writes one record as JSON, keyed by resolution date.
func (e *Exporter) Export(ctx context.Context, record DisputeRecord) error {
	if !e.Enabled() {
		return nil
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("moderation: marshal dispute record: %w", err)
	}

	at := record.ResolvedAt.UTC()
	key := fmt.Sprintf("disputes/v1/by-date/%d/%02d/%02d/%s.json",
		at.Year(), at.Month(), at.Day(), record.AppointmentID)

	_, err = e.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("moderation: s3 put %s: %w", key, err)
	}

	e.logger.Info("dispute record archived",
		"appointment_id", record.AppointmentID,
		"s3_key", key,
		"resolution", record.Resolution,
	)
	return nil
}
