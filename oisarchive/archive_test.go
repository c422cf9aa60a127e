// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

package oisarchive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestUploadJournalPutsObjectUnderPrefix(t *testing.T) {
	var capturedPath, capturedMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider("test", "test", ""),
		UsePathStyle: true,
		BaseEndpoint: aws.String(srv.URL),
	})

	dir := t.TempDir()
	path := filepath.Join(dir, "session.cbor")
	if err := os.WriteFile(path, []byte("journal bytes"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	store := NewStoreFromClient(client, "ois-captures", "journals")
	key, err := store.UploadJournal(context.Background(), path)
	if err != nil {
		t.Fatalf("UploadJournal: %v", err)
	}
	if key != "journals/session.cbor" {
		t.Errorf("key = %q, want journals/session.cbor", key)
	}
	if capturedMethod != http.MethodPut {
		t.Errorf("method = %q, want PUT", capturedMethod)
	}
	if capturedPath != "/ois-captures/journals/session.cbor" {
		t.Errorf("request path = %q, want /ois-captures/journals/session.cbor", capturedPath)
	}
}
