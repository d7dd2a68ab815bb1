// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package enumerator lists the objects under a pipeline's atom input and
// turns glob matches into per-datum input files (spec.md §4.3).
package enumerator

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/faradayio/falconeri/pkg/apierrors"
)

// Object is one listed store object, relative to the input URI's root.
type Object struct {
	// Key is the full path under the bucket/container, e.g. "images/cat.png".
	Key string
}

// Lister lists every object reachable from a URI. Implementations are
// scheme-specific (s3://, gs://); the enumerator itself never talks to a
// store directly, which keeps it testable with a fake.
type Lister interface {
	List(ctx context.Context, uri string) ([]Object, error)
}

// Match is one enumerated input file: the object's URI and the in-container
// mount path it should be placed at.
type Match struct {
	URI       string
	MountPath string
}

// Enumerate lists the store under uri, matches each object against glob
// (rooted at "/", with the listed key treated as the path under uri), and
// returns matches in a stable order (lexical by key) so that datum
// assignment is deterministic across retries. One matched object becomes
// one datum for the atom input type (spec.md §4.3).
func Enumerate(ctx context.Context, lister Lister, uri, repo, glob string) ([]Match, error) {
	objects, err := lister.List(ctx, uri)
	if err != nil {
		return nil, apierrors.NewError().
			WithCode(apierrors.CodeStorageUnavailable).
			WithMessage("failed to list input store").
			WithError(err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })

	var matches []Match
	for _, obj := range objects {
		relative := "/" + strings.TrimPrefix(obj.Key, "/")
		ok, err := path.Match(glob, relative)
		if err != nil {
			return nil, apierrors.NewError().
				WithCode(apierrors.CodeValidation).
				WithMessage("invalid glob pattern").
				WithError(err)
		}
		if !ok {
			continue
		}
		matches = append(matches, Match{
			URI:       strings.TrimRight(uri, "/") + "/" + strings.TrimPrefix(obj.Key, "/"),
			MountPath: "/pfs/" + repo + relative,
		})
	}
	return matches, nil
}

// ListerFor returns the Lister implementation appropriate for uri's scheme.
func ListerFor(uri string) (Lister, error) {
	switch {
	case strings.HasPrefix(uri, "s3://"):
		return NewS3Lister()
	case strings.HasPrefix(uri, "gs://"):
		return NewGCSLister()
	default:
		return nil, apierrors.NewError().
			WithCode(apierrors.CodeValidation).
			WithMessage("unsupported input URI scheme: " + uri)
	}
}
