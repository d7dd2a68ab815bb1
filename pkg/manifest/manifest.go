// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package manifest builds the cluster-side batch Job description for a
// pipeline spec (spec.md §4.4).
package manifest

import (
	"fmt"
	"math/rand"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/faradayio/falconeri/pkg/apierrors"
	"github.com/faradayio/falconeri/pkg/spec"
)

const (
	workerCommand      = "/usr/local/bin/falconeri-worker"
	defaultBackoffLimit int32 = 4
	finishedJobTTL     int32 = 60 * 60 * 24 // one day, seconds
)

// Options carries the values the manifest needs beyond the pipeline spec
// itself: the job's persisted id, the namespace to submit into, and the
// worker image to fall back to when the pipeline spec doesn't name one.
type Options struct {
	JobID              string
	Namespace          string
	DefaultWorkerImage string
}

// Build produces a batchv1.Job for the given pipeline and job id. Key
// mappings follow spec.md §4.4: parallelism_spec.constant → parallelism,
// job_timeout → activeDeadlineSeconds, resource limits.memory pinned equal
// to requests.memory (a hard cap, intentional, to prevent noisy-neighbor
// evictions), restartPolicy Never, backoffLimit 4, one-day finished TTL.
func Build(p *spec.Pipeline, opts Options) (*batchv1.Job, error) {
	memQuantity, err := resource.ParseQuantity(p.ResourceRequests.Memory)
	if err != nil {
		return nil, apierrors.NewError().
			WithCode(apierrors.CodeValidation).
			WithMessage("invalid resource_requests.memory").
			WithError(err)
	}
	cpuQuantity, err := resource.ParseQuantity(p.ResourceRequests.CPU)
	if err != nil {
		return nil, apierrors.NewError().
			WithCode(apierrors.CodeValidation).
			WithMessage("invalid resource_requests.cpu").
			WithError(err)
	}

	image := p.Transform.Image
	if image == "" {
		image = opts.DefaultWorkerImage
	}

	env, volumes, mounts, err := secretsToEnvAndVolumes(p.Transform.Secrets)
	if err != nil {
		return nil, err
	}
	for k, v := range p.Transform.Env {
		env = append(env, corev1.EnvVar{Name: k, Value: v})
	}
	// A worker identifies itself to POST /datums/reserve by pod and node;
	// the only way it can learn either is the downward API (spec.md §6,
	// "Environment (worker)").
	env = append(env,
		corev1.EnvVar{
			Name: "FALCONERI_POD_NAME",
			ValueFrom: &corev1.EnvVarSource{
				FieldRef: &corev1.ObjectFieldSelector{FieldPath: "metadata.name"},
			},
		},
		corev1.EnvVar{
			Name: "FALCONERI_NODE_NAME",
			ValueFrom: &corev1.EnvVarSource{
				FieldRef: &corev1.ObjectFieldSelector{FieldPath: "spec.nodeName"},
			},
		},
	)

	parallelism := int32(p.ParallelismSpec.Constant)
	clusterName := clusterJobName(p.Pipeline.Name)

	job := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:      clusterName,
			Namespace: opts.Namespace,
			Labels: map[string]string{
				"falconeri.io/job-id":        opts.JobID,
				"falconeri.io/pipeline-name": p.Pipeline.Name,
			},
		},
		Spec: batchv1.JobSpec{
			Parallelism:             &parallelism,
			BackoffLimit:            int32Ptr(defaultBackoffLimit),
			TTLSecondsAfterFinished: int32Ptr(finishedJobTTL),
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: map[string]string{
						"falconeri.io/job-id": opts.JobID,
					},
				},
				Spec: corev1.PodSpec{
					RestartPolicy:      corev1.RestartPolicyNever,
					ServiceAccountName: p.Transform.ServiceAccount,
					NodeSelector:       p.NodeSelector,
					Volumes:            volumes,
					Containers: []corev1.Container{
						{
							Name:         "worker",
							Image:        image,
							Command:      append([]string{workerCommand}, opts.JobID),
							Env:          env,
							VolumeMounts: mounts,
							Resources: corev1.ResourceRequirements{
								Requests: corev1.ResourceList{
									corev1.ResourceMemory: memQuantity,
									corev1.ResourceCPU:    cpuQuantity,
								},
								Limits: corev1.ResourceList{
									// Memory limit pinned to the request, deliberately.
									corev1.ResourceMemory: memQuantity,
								},
							},
						},
					},
				},
			},
		},
	}

	if p.JobTimeout != "" {
		d, err := spec.ParseDuration(p.JobTimeout)
		if err != nil {
			return nil, apierrors.NewError().
				WithCode(apierrors.CodeValidation).
				WithMessage("invalid job_timeout").
				WithError(err)
		}
		seconds := int64(d.Seconds())
		job.Spec.ActiveDeadlineSeconds = &seconds
	}

	return job, nil
}

func secretsToEnvAndVolumes(secrets []spec.Secret) ([]corev1.EnvVar, []corev1.Volume, []corev1.VolumeMount, error) {
	var env []corev1.EnvVar
	var volumes []corev1.Volume
	var mounts []corev1.VolumeMount

	for _, s := range secrets {
		switch {
		case s.IsEnvVar():
			env = append(env, corev1.EnvVar{
				Name: s.EnvVar,
				ValueFrom: &corev1.EnvVarSource{
					SecretKeyRef: &corev1.SecretKeySelector{
						LocalObjectReference: corev1.LocalObjectReference{Name: s.Name},
						Key:                  s.Key,
					},
				},
			})
		case s.IsMount():
			volumes = append(volumes, corev1.Volume{
				Name: volumeName(s.Name),
				VolumeSource: corev1.VolumeSource{
					Secret: &corev1.SecretVolumeSource{SecretName: s.Name},
				},
			})
			mounts = append(mounts, corev1.VolumeMount{
				Name:      volumeName(s.Name),
				MountPath: s.MountPath,
				ReadOnly:  true,
			})
		default:
			return nil, nil, nil, apierrors.NewError().
				WithCode(apierrors.CodeValidation).
				WithMessagef("secret %q is neither env-var nor mount shape", s.Name)
		}
	}
	return env, volumes, mounts, nil
}

func volumeName(secretName string) string {
	return "secret-" + secretName
}

// clusterJobName produces a human-readable name with a randomized suffix to
// avoid collisions (spec.md §3).
func clusterJobName(pipelineName string) string {
	return fmt.Sprintf("falconeri-%s-%s", pipelineName, randomSuffix())
}

func randomSuffix() string {
	const chars = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 8)
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := range b {
		b[i] = chars[r.Intn(len(chars))]
	}
	return string(b)
}

func int32Ptr(v int32) *int32 {
	return &v
}
