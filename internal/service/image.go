package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/foodgram/backend/config"
)

// DecodeDataURI parses a "data:image/<ext>;base64,<payload>" string into the
// image extension and raw bytes. Any malformed input is a ValidationError;
// no storage side effects happen here.
func DecodeDataURI(value string) (string, []byte, error) {
	if !strings.HasPrefix(value, "data:image/") {
		return "", nil, NewValidationError("avatar", "invalid image data")
	}
	format, payload, found := strings.Cut(value, ";base64,")
	if !found || payload == "" {
		return "", nil, NewValidationError("avatar", "invalid image data")
	}
	ext := strings.TrimPrefix(format, "data:image/")
	if ext == "" || strings.ContainsAny(ext, "/;,") {
		return "", nil, NewValidationError("avatar", "invalid image data")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, NewValidationError("avatar", "invalid base64 payload")
	}
	return ext, data, nil
}

// ImageService stores and deletes image blobs in S3.
type ImageService struct {
	s3Config *config.S3Config
}

func NewImageService(s3Config *config.S3Config) *ImageService {
	return &ImageService{s3Config: s3Config}
}

// StoreDataURI decodes a data URI and uploads it under the given key prefix,
// returning the public URL.
func (s *ImageService) StoreDataURI(ctx context.Context, dataURI, keyPrefix string) (string, error) {
	ext, data, err := DecodeDataURI(dataURI)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s.%s", keyPrefix, uuid.New().String(), ext)
	return s.Upload(ctx, data, key, "image/"+ext)
}

// Upload writes image bytes to S3 and returns the public URL.
func (s *ImageService) Upload(ctx context.Context, data []byte, key, contentType string) (string, error) {
	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	url := s.s3Config.ObjectURL(key)
	log.Printf("[ImageService] uploaded %s", url)
	return url, nil
}

// Delete removes a previously stored image by its public URL. Unknown URLs
// are ignored so callers can pass through externally hosted images.
func (s *ImageService) Delete(ctx context.Context, url string) error {
	key, ok := s.s3Config.ObjectKey(url)
	if !ok {
		return nil
	}
	_, err := s.s3Config.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.s3Config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}
