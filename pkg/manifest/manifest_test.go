// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package manifest

import (
	"testing"

	corev1 "k8s.io/api/core/v1"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faradayio/falconeri/pkg/spec"
)

func testPipeline() *spec.Pipeline {
	return &spec.Pipeline{
		Pipeline: spec.PipelineIdentity{Name: "edges"},
		Transform: spec.Transform{
			Image: "example/edges:latest",
			Cmd:   []string{"/bin/edges"},
			Secrets: []spec.Secret{
				{Name: "db-creds", Key: "password", EnvVar: "DB_PASSWORD"},
				{Name: "tls-cert", MountPath: "/etc/falconeri/secrets/tls"},
			},
		},
		ParallelismSpec:  spec.ParallelismSpec{Constant: 3},
		ResourceRequests: spec.ResourceRequests{Memory: "512Mi", CPU: "1"},
		JobTimeout:       "2h",
	}
}

func TestBuild_ParallelismAndResources(t *testing.T) {
	job, err := Build(testPipeline(), Options{JobID: "job-1", Namespace: "falconeri", DefaultWorkerImage: "fallback:latest"})
	require.NoError(t, err)

	require.NotNil(t, job.Spec.Parallelism)
	assert.Equal(t, int32(3), *job.Spec.Parallelism)
	assert.Equal(t, int32(4), *job.Spec.BackoffLimit)
	assert.Equal(t, corev1.RestartPolicyNever, job.Spec.Template.Spec.RestartPolicy)

	container := job.Spec.Template.Spec.Containers[0]
	requests := container.Resources.Requests[corev1.ResourceMemory]
	limits := container.Resources.Limits[corev1.ResourceMemory]
	assert.Equal(t, requests.Value(), limits.Value(), "memory limit must equal memory request")

	require.NotNil(t, job.Spec.ActiveDeadlineSeconds)
	assert.Equal(t, int64(7200), *job.Spec.ActiveDeadlineSeconds)

	assert.Equal(t, []string{workerCommand, "job-1"}, container.Command)
}

func TestBuild_SecretsSplitEnvAndMount(t *testing.T) {
	job, err := Build(testPipeline(), Options{JobID: "job-1", Namespace: "falconeri"})
	require.NoError(t, err)

	container := job.Spec.Template.Spec.Containers[0]
	require.Len(t, container.Env, 3)
	assert.Equal(t, "DB_PASSWORD", container.Env[0].Name)
	assert.Equal(t, "db-creds", container.Env[0].ValueFrom.SecretKeyRef.Name)

	require.Len(t, container.VolumeMounts, 1)
	assert.Equal(t, "/etc/falconeri/secrets/tls", container.VolumeMounts[0].MountPath)
	require.Len(t, job.Spec.Template.Spec.Volumes, 1)
	assert.Equal(t, "tls-cert", job.Spec.Template.Spec.Volumes[0].Secret.SecretName)
}

func TestBuild_InjectsPodAndNodeNameViaDownwardAPI(t *testing.T) {
	job, err := Build(testPipeline(), Options{JobID: "job-1", Namespace: "falconeri"})
	require.NoError(t, err)

	container := job.Spec.Template.Spec.Containers[0]
	var podNameVar, nodeNameVar *corev1.EnvVar
	for i := range container.Env {
		switch container.Env[i].Name {
		case "FALCONERI_POD_NAME":
			podNameVar = &container.Env[i]
		case "FALCONERI_NODE_NAME":
			nodeNameVar = &container.Env[i]
		}
	}

	require.NotNil(t, podNameVar, "FALCONERI_POD_NAME must be injected")
	require.NotNil(t, podNameVar.ValueFrom)
	require.NotNil(t, podNameVar.ValueFrom.FieldRef)
	assert.Equal(t, "metadata.name", podNameVar.ValueFrom.FieldRef.FieldPath)

	require.NotNil(t, nodeNameVar, "FALCONERI_NODE_NAME must be injected")
	require.NotNil(t, nodeNameVar.ValueFrom)
	require.NotNil(t, nodeNameVar.ValueFrom.FieldRef)
	assert.Equal(t, "spec.nodeName", nodeNameVar.ValueFrom.FieldRef.FieldPath)
}

func TestBuild_UsesDefaultImageWhenUnset(t *testing.T) {
	p := testPipeline()
	p.Transform.Image = ""
	job, err := Build(p, Options{JobID: "job-1", Namespace: "falconeri", DefaultWorkerImage: "fallback:latest"})
	require.NoError(t, err)
	assert.Equal(t, "fallback:latest", job.Spec.Template.Spec.Containers[0].Image)
}

func TestBuild_InvalidSecretShape(t *testing.T) {
	p := testPipeline()
	p.Transform.Secrets = []spec.Secret{{Name: "broken"}}
	_, err := Build(p, Options{JobID: "job-1", Namespace: "falconeri"})
	assert.Error(t, err)
}
