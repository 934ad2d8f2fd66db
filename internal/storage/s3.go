package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	a "fashionai/avatar-api/aws"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3API is the subset of the S3 client the store needs
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3 stores files as objects in a single bucket
type S3 struct {
	C      S3API
	Bucket *string
}

func NewS3(c *a.S3Client) *S3 {
	return &S3{C: c.C, Bucket: c.Bucket}
}

func (s *S3) Save(ctx context.Context, key string, data []byte, contentType string) error {
	k, err := CleanKey(key)
	if err != nil {
		return err
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.C.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        s.Bucket,
		Key:           aws.String(k),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s, %w", k, err)
	}

	return nil
}

func (s *S3) Read(ctx context.Context, key string) ([]byte, error) {
	r, _, err := s.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}

func (s *S3) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	k, err := CleanKey(key)
	if err != nil {
		return nil, 0, err
	}

	out, err := s.C.GetObject(ctx, &s3.GetObjectInput{
		Bucket: s.Bucket,
		Key:    aws.String(k),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, 0, ErrNotFound
		}

		return nil, 0, fmt.Errorf("failed to fetch %s, %w", k, err)
	}

	return out.Body, aws.ToInt64(out.ContentLength), nil
}

// Delete is idempotent, S3 itself doesn't complain about missing keys
func (s *S3) Delete(ctx context.Context, key string) error {
	k, err := CleanKey(key)
	if err != nil {
		return err
	}

	_, err = s.C.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: s.Bucket,
		Key:    aws.String(k),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete %s, %w", k, err)
	}

	return nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}

	return false
}
