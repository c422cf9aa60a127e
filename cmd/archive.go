// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

package cmd

import (
	"context"
	"fmt"

	"github.com/openois/oishub/oisarchive"
	"github.com/spf13/cobra"
)

var (
	archiveBucket string
	archivePrefix string
)

var archiveCmd = &cobra.Command{
	Use:   "archive <journal-file>",
	Short: "Upload a recorder journal to S3-compatible object storage",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchive,
}

func init() {
	archiveCmd.Flags().StringVar(&archiveBucket, "bucket", "", "Destination S3 bucket (required)")
	archiveCmd.Flags().StringVar(&archivePrefix, "prefix", "journals", "Key prefix within the bucket")
	archiveCmd.MarkFlagRequired("bucket")
	rootCmd.AddCommand(archiveCmd)
}

func runArchive(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	store, err := oisarchive.NewStore(ctx, archiveBucket, archivePrefix)
	if err != nil {
		return err
	}
	key, err := store.UploadJournal(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("uploaded %s to s3://%s/%s\n", args[0], archiveBucket, key)
	return nil
}
