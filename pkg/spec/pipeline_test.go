// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPipeline() Pipeline {
	return Pipeline{
		Pipeline: PipelineIdentity{Name: "edges"},
		Transform: Transform{
			Image: "example/edges:latest",
			Cmd:   []string{"/bin/edges"},
		},
		ParallelismSpec: ParallelismSpec{Constant: 4},
		ResourceRequests: ResourceRequests{
			Memory: "256Mi",
			CPU:    "0.5",
		},
		DatumTries: 1,
		Input: Input{
			Atom: &AtomInput{
				URI:  "s3://bucket/input",
				Repo: "images",
				Glob: "/*.png",
			},
		},
		Egress: Egress{URI: "s3://bucket/output"},
	}
}

func TestPipeline_Validate_OK(t *testing.T) {
	p := validPipeline()
	require.NoError(t, p.Validate())
}

func TestPipeline_Validate_DefaultsDatumTries(t *testing.T) {
	p := validPipeline()
	p.DatumTries = 0
	require.NoError(t, p.Validate())
	assert.Equal(t, 1, p.DatumTries)
}

func TestPipeline_Validate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Pipeline)
	}{
		{"missing name", func(p *Pipeline) { p.Pipeline.Name = "" }},
		{"missing atom", func(p *Pipeline) { p.Input.Atom = nil }},
		{"unsupported scheme", func(p *Pipeline) { p.Input.Atom.URI = "ftp://host/path" }},
		{"glob without leading slash", func(p *Pipeline) { p.Input.Atom.Glob = "*.png" }},
		{"zero parallelism", func(p *Pipeline) { p.ParallelismSpec.Constant = 0 }},
		{"missing memory", func(p *Pipeline) { p.ResourceRequests.Memory = "" }},
		{"bad memory quantity", func(p *Pipeline) { p.ResourceRequests.Memory = "not-a-quantity" }},
		{"missing cpu", func(p *Pipeline) { p.ResourceRequests.CPU = "" }},
		{"negative datum tries", func(p *Pipeline) { p.DatumTries = -1 }},
		{"bad job timeout", func(p *Pipeline) { p.JobTimeout = "nope" }},
		{"empty cmd", func(p *Pipeline) { p.Transform.Cmd = nil }},
		{"missing image", func(p *Pipeline) { p.Transform.Image = "" }},
		{"missing egress", func(p *Pipeline) { p.Egress.URI = "" }},
		{
			"secret with both shapes",
			func(p *Pipeline) {
				p.Transform.Secrets = []Secret{{Name: "db", Key: "k", EnvVar: "E", MountPath: "/etc/x"}}
			},
		},
		{
			"secret with neither shape",
			func(p *Pipeline) {
				p.Transform.Secrets = []Secret{{Name: "db"}}
			},
		},
	}
	for _, tt := range tests {
		p := validPipeline()
		tt.modify(&p)
		assert.Error(t, p.Validate(), tt.name)
	}
}

func TestSecret_ShapeDetection(t *testing.T) {
	envVar := Secret{Name: "db", Key: "password", EnvVar: "DB_PASSWORD"}
	assert.True(t, envVar.IsEnvVar())
	assert.False(t, envVar.IsMount())

	mount := Secret{Name: "tls", MountPath: "/etc/falconeri/secrets/tls"}
	assert.True(t, mount.IsMount())
	assert.False(t, mount.IsEnvVar())
}
