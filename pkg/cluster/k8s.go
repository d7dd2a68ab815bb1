// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package cluster

import (
	"context"

	batchv1 "k8s.io/api/batch/v1"
	apierrs "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/faradayio/falconeri/pkg/apierrors"
)

// K8sScheduler implements Scheduler against a real Kubernetes cluster with
// client-go's typed Clientset.
type K8sScheduler struct {
	clientset *kubernetes.Clientset
}

// NewK8sScheduler builds a scheduler from in-cluster config. Falls back to
// nothing else: the daemon is meant to run as an in-cluster workload.
func NewK8sScheduler() (*K8sScheduler, error) {
	cfg, err := rest.InClusterConfig()
	if err != nil {
		return nil, apierrors.NewError().
			WithCode(apierrors.CodeInitializeError).
			WithMessage("failed to load in-cluster config").
			WithError(err)
	}
	return NewK8sSchedulerFromConfig(cfg)
}

// NewK8sSchedulerFromConfig builds a scheduler from an explicit rest.Config,
// useful for tests and for running the daemon outside the cluster during
// development.
func NewK8sSchedulerFromConfig(cfg *rest.Config) (*K8sScheduler, error) {
	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, apierrors.NewError().
			WithCode(apierrors.CodeInitializeError).
			WithMessage("failed to construct k8s clientset").
			WithError(err)
	}
	return &K8sScheduler{clientset: clientset}, nil
}

func (s *K8sScheduler) SubmitJob(ctx context.Context, job *batchv1.Job) error {
	_, err := s.clientset.BatchV1().Jobs(job.Namespace).Create(ctx, job, metav1.CreateOptions{})
	if err != nil {
		return apierrors.WrapError(err, "failed to submit batch job", apierrors.CodeClusterUnavailable)
	}
	return nil
}

func (s *K8sScheduler) DeleteJob(ctx context.Context, namespace, name string) error {
	propagation := metav1.DeletePropagationForeground
	err := s.clientset.BatchV1().Jobs(namespace).Delete(ctx, name, metav1.DeleteOptions{
		PropagationPolicy: &propagation,
	})
	if err != nil && !apierrs.IsNotFound(err) {
		return apierrors.WrapError(err, "failed to delete batch job", apierrors.CodeClusterUnavailable)
	}
	return nil
}

func (s *K8sScheduler) GetPodPhase(ctx context.Context, namespace, podName string) (PodPhase, bool, error) {
	pod, err := s.clientset.CoreV1().Pods(namespace).Get(ctx, podName, metav1.GetOptions{})
	if apierrs.IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apierrors.WrapError(err, "failed to get pod", apierrors.CodeClusterUnavailable)
	}
	return PodPhase(pod.Status.Phase), true, nil
}

func (s *K8sScheduler) JobExists(ctx context.Context, namespace, name string) (bool, error) {
	_, err := s.clientset.BatchV1().Jobs(namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrs.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, apierrors.WrapError(err, "failed to get batch job", apierrors.CodeClusterUnavailable)
	}
	return true, nil
}
