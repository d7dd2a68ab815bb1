// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package enumerator

import (
	"context"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/faradayio/falconeri/pkg/apierrors"
)

// GCSLister lists objects under a gs:// URI using the official Cloud
// Storage client, the bucket.Objects iterator pattern.
type GCSLister struct {
	client *storage.Client
}

func NewGCSLister() (*GCSLister, error) {
	client, err := storage.NewClient(context.Background())
	if err != nil {
		return nil, apierrors.NewError().
			WithCode(apierrors.CodeInitializeError).
			WithMessage("failed to construct GCS client").
			WithError(err)
	}
	return &GCSLister{client: client}, nil
}

func (l *GCSLister) List(ctx context.Context, uri string) ([]Object, error) {
	bucket, prefix, err := parseGCSURI(uri)
	if err != nil {
		return nil, err
	}

	var objects []Object
	it := l.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, apierrors.NewError().
				WithCode(apierrors.CodeStorageUnavailable).
				WithMessage("failed to list gcs objects").
				WithError(err)
		}
		if strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		objects = append(objects, Object{Key: strings.TrimPrefix(attrs.Name, prefix)})
	}
	return objects, nil
}

func parseGCSURI(uri string) (bucket, prefix string, err error) {
	parsed, parseErr := url.Parse(uri)
	if parseErr != nil {
		return "", "", apierrors.NewError().
			WithCode(apierrors.CodeValidation).
			WithMessage("invalid gs URI").
			WithError(parseErr)
	}
	return parsed.Host, strings.TrimPrefix(parsed.Path, "/"), nil
}
