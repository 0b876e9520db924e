// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

// Package storage uploads user media to an S3-compatible object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds bucket and endpoint settings.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string

	// PublicURL is the base URL objects are served from. Derived from the
	// endpoint or the AWS virtual-host form when empty.
	PublicURL string
}

// objectPutter is the part of [s3.Client] the store uses.
type objectPutter interface {
	PutObject(context context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3AvatarStore writes one object per user under avatars/<id>.
type S3AvatarStore struct {
	client    objectPutter
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewS3AvatarStore builds an S3 client from cfg.
func NewS3AvatarStore(ctx context.Context, cfg S3Config) (*S3AvatarStore, error) {
	options := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		options = append(options, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("storage_config_load_failed: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3AvatarStore(client, cfg), nil
}

func newS3AvatarStore(client objectPutter, cfg S3Config) *S3AvatarStore {
	return &S3AvatarStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicBase(cfg),
		now:       time.Now,
	}
}

func publicBase(cfg S3Config) string {
	switch {
	case cfg.PublicURL != "":
		return strings.TrimRight(cfg.PublicURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}

// Key returns the object key for a user's avatar.
func Key(userID int64) string {
	return fmt.Sprintf("avatars/%d", userID)
}

/*
PutAvatar uploads body and returns its public URL.

Description: The key is stable per user, so the URL carries a version query
parameter to defeat stale CDN and browser caches.
*/
func (store *S3AvatarStore) PutAvatar(context context.Context, userID int64, contentType string, body io.Reader, size int64) (string, error) {
	key := Key(userID)

	_, err := store.client.PutObject(context, &s3.PutObjectInput{
		Bucket:        aws.String(store.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		CacheControl:  aws.String("public, max-age=31536000"),
	})
	if err != nil {
		return "", fmt.Errorf("storage_put_object_failed: %w", err)
	}

	return fmt.Sprintf("%s/%s?v=%d", store.publicURL, key, store.now().Unix()), nil
}
