package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pageza/familyrecipes/backend/config"
	"github.com/pageza/familyrecipes/backend/internal/pkg/logger"
)

// S3PhotoStore uploads recipe photos to an S3 bucket
type S3PhotoStore struct {
	s3Config *config.S3Config
	log      *logger.Logger
}

// NewS3PhotoStore creates a photo store backed by s3Config
func NewS3PhotoStore(s3Config *config.S3Config, log *logger.Logger) *S3PhotoStore {
	return &S3PhotoStore{s3Config: s3Config, log: log.With("store", "S3PhotoStore")}
}

// Put uploads data under key and returns the object's public URL
func (s *S3PhotoStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      s.s3Config.Bucket(),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	url := s.s3Config.PublicURL(key)
	s.log.Info("uploaded recipe photo", "key", key, "bytes", len(data))
	return url, nil
}
