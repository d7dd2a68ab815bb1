// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package enumerator

import (
	"context"
	"net/url"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/faradayio/falconeri/pkg/apierrors"
)

// S3Lister lists objects under an s3:// URI using minio-go, which speaks
// both AWS S3 and S3-compatible endpoints (configurable via
// FALCONERI_S3_ENDPOINT for non-AWS deployments).
type S3Lister struct {
	client *minio.Client
}

func NewS3Lister() (*S3Lister, error) {
	endpoint := os.Getenv("FALCONERI_S3_ENDPOINT")
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
	}
	useSSL := os.Getenv("FALCONERI_S3_DISABLE_SSL") == ""

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewEnvAWS(),
		Secure: useSSL,
	})
	if err != nil {
		return nil, apierrors.NewError().
			WithCode(apierrors.CodeInitializeError).
			WithMessage("failed to construct S3 client").
			WithError(err)
	}
	return &S3Lister{client: client}, nil
}

func (l *S3Lister) List(ctx context.Context, uri string) ([]Object, error) {
	bucket, prefix, err := parseS3URI(uri)
	if err != nil {
		return nil, err
	}

	var objects []Object
	for info := range l.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, apierrors.NewError().
				WithCode(apierrors.CodeStorageUnavailable).
				WithMessage("failed to list s3 objects").
				WithError(info.Err)
		}
		objects = append(objects, Object{Key: strings.TrimPrefix(info.Key, prefix)})
	}
	return objects, nil
}

func parseS3URI(uri string) (bucket, prefix string, err error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return "", "", apierrors.NewError().
			WithCode(apierrors.CodeValidation).
			WithMessage("invalid s3 URI").
			WithError(err)
	}
	return parsed.Host, strings.TrimPrefix(parsed.Path, "/"), nil
}
