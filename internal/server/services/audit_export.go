package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmolchanov/packvault/internal/common"
	sc "github.com/dmolchanov/packvault/internal/server/config"
	"github.com/dmolchanov/packvault/internal/server/repositories/repomanager"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

const exportLimit = 10000

// AuditService exports the audit trail to object storage.
type AuditService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewAuditService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config) *AuditService {
	return &AuditService{
		db:          db,
		repomanager: repomanager,
		config:      config,
	}
}

func exportStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("exports/%d/%d/%d/%v.jsonl", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *AuditService) getS3Client() (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	}), nil
}

// Export writes the audit trail as JSON lines to the configured bucket and
// returns a presigned GET URL for the uploaded object. System only.
func (s *AuditService) Export(ctx context.Context, actor string) (string, error) {
	if actor != s.config.ServiceAccount {
		return "", common.ErrUnauthorized
	}

	events, err := s.repomanager.Audit(s.db).List(ctx, exportLimit)
	if err != nil {
		return "", fmt.Errorf("error listing audit events: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, event := range events {
		if err := enc.Encode(event); err != nil {
			return "", fmt.Errorf("error encoding audit event: %w", err)
		}
	}

	client, err := s.getS3Client()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	key := exportStorageKey()

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		return "", fmt.Errorf("error uploading export: %w", err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
