// Package storage сохраняет результаты обработки work requests в
// S3-совместимое хранилище (AWS S3, MinIO).
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/shaiso/hrm/internal/config"
)

// ObjectPutter — часть s3.Client, нужная архиву.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ ObjectPutter = (*s3.Client)(nil)

// Record — содержимое архивного объекта.
type Record struct {
	WorkRequestID uuid.UUID `json:"work_request_id"`
	EventID       uuid.UUID `json:"event_id"`
	CorrelationID string    `json:"correlation_id"`
	Title         string    `json:"title"`
	Plan          string    `json:"plan"`
	Result        string    `json:"result"`
	CompletedAt   time.Time `json:"completed_at"`
}

// ResultArchive пишет Record в бакет.
type ResultArchive struct {
	client ObjectPutter
	bucket string
}

// NewS3Client создаёт клиент S3. Если задан endpoint, включается
// path-style адресация (MinIO и аналоги).
func NewS3Client(ctx context.Context, cfg config.S3) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return s3.NewFromConfig(awsCfg, opts...), nil
}

// NewResultArchive создаёт архив поверх клиента.
func NewResultArchive(client ObjectPutter, bucket string) *ResultArchive {
	return &ResultArchive{client: client, bucket: bucket}
}

// ObjectKey — ключ объекта: work-requests/<id>/<event-id>.json.
func ObjectKey(workRequestID, eventID uuid.UUID) string {
	return fmt.Sprintf("work-requests/%s/%s.json", workRequestID, eventID)
}

// Save загружает запись и возвращает ключ объекта.
func (a *ResultArchive) Save(ctx context.Context, rec Record) (string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	key := ObjectKey(rec.WorkRequestID, rec.EventID)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return key, nil
}
