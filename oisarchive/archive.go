// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

// Package oisarchive uploads oisrecorder journal files to S3-compatible
// object storage, grounded on vango-go-vango's pkg/upload S3Store example
// (aws-sdk-go-v2's config/s3 client construction and PutObject call shape).
package oisarchive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Store uploads journal files captured by oisrecorder to an S3 bucket,
// under an optional key prefix, tagging each object with its capture time
// and original filename the way vango-go-vango's S3Store tags uploads.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewStore loads the default AWS config (environment/profile/IMDS chain)
// and constructs a Store targeting bucket, with all object keys placed
// under prefix.
func NewStore(ctx context.Context, bucket, prefix string) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("oisarchive: load AWS config: %w", err)
	}
	return &Store{client: s3.NewFromConfig(cfg), bucket: bucket, prefix: prefix}, nil
}

// NewStoreFromClient builds a Store around an already-configured S3
// client, for callers that need custom endpoints or credentials (e.g.
// tests against an S3-compatible local server).
func NewStoreFromClient(client *s3.Client, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

// UploadJournal reads the journal file at path and uploads it to the
// store, returning the resulting object key.
func (s *Store) UploadJournal(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("oisarchive: open journal %q: %w", path, err)
	}
	defer f.Close()

	key := filepath.ToSlash(filepath.Join(s.prefix, filepath.Base(path)))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/cbor"),
		Metadata: map[string]string{
			"original-filename": filepath.Base(path),
			"upload-time":       time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("oisarchive: upload %q: %w", path, err)
	}
	return key, nil
}
