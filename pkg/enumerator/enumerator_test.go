// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package enumerator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	objects []Object
	err     error
}

func (f *fakeLister) List(ctx context.Context, uri string) ([]Object, error) {
	return f.objects, f.err
}

func TestEnumerate_StableOrderAndGlob(t *testing.T) {
	lister := &fakeLister{
		objects: []Object{
			{Key: "b.png"},
			{Key: "a.png"},
			{Key: "notes.txt"},
			{Key: "nested/c.png"},
		},
	}

	matches, err := Enumerate(context.Background(), lister, "s3://bucket/images", "images", "/*.png")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "/pfs/images/a.png", matches[0].MountPath)
	assert.Equal(t, "/pfs/images/b.png", matches[1].MountPath)
	assert.Equal(t, "s3://bucket/images/a.png", matches[0].URI)
}

func TestEnumerate_NoMatches(t *testing.T) {
	lister := &fakeLister{objects: []Object{{Key: "readme.md"}}}
	matches, err := Enumerate(context.Background(), lister, "s3://bucket", "repo", "/*.png")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestEnumerate_ListError(t *testing.T) {
	lister := &fakeLister{err: assert.AnError}
	_, err := Enumerate(context.Background(), lister, "s3://bucket", "repo", "/*.png")
	assert.Error(t, err)
}

func TestListerFor_UnsupportedScheme(t *testing.T) {
	_, err := ListerFor("ftp://host/path")
	assert.Error(t, err)
}
