package config

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the S3 client and bucket that store catalog images
type S3Config struct {
	Client     *s3.Client
	BucketName string
	presign    *s3.PresignClient
}

// NewS3Config initializes the S3 client from the default AWS credential chain
func NewS3Config(ctx context.Context, bucket, region string) (*S3Config, error) {
	if bucket == "" {
		return nil, errors.New("s3 bucket name is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return NewS3ConfigFromAWS(awsCfg, bucket), nil
}

// NewS3ConfigFromAWS builds an S3Config from an already loaded AWS config
func NewS3ConfigFromAWS(awsCfg aws.Config, bucket string) *S3Config {
	client := s3.NewFromConfig(awsCfg)
	return &S3Config{
		Client:     client,
		BucketName: bucket,
		presign:    s3.NewPresignClient(client),
	}
}

// GeneratePresignedURL generates a presigned GET URL for objectKey
func (s *S3Config) GeneratePresignedURL(ctx context.Context, objectKey string, expiration time.Duration) (string, error) {
	if objectKey == "" {
		return "", errors.New("object key is empty")
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.BucketName),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(expiration))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
