// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package spec decodes and validates the user-facing pipeline spec JSON
// (spec.md §4.2, §6).
package spec

import (
	"strings"

	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/faradayio/falconeri/pkg/apierrors"
)

// Pipeline is the top-level pipeline spec document.
type Pipeline struct {
	Pipeline        PipelineIdentity  `json:"pipeline"`
	Transform       Transform         `json:"transform"`
	ParallelismSpec ParallelismSpec   `json:"parallelism_spec"`
	ResourceRequests ResourceRequests `json:"resource_requests"`
	DatumTries      int               `json:"datum_tries"`
	JobTimeout      string            `json:"job_timeout"`
	NodeSelector    map[string]string `json:"node_selector"`
	Input           Input             `json:"input"`
	Egress          Egress            `json:"egress"`
}

type PipelineIdentity struct {
	Name string `json:"name"`
}

type Transform struct {
	Image            string            `json:"image"`
	ImagePullPolicy  string            `json:"image_pull_policy"`
	Cmd              []string          `json:"cmd"`
	Env              map[string]string `json:"env"`
	ServiceAccount   string            `json:"service_account"`
	Secrets          []Secret          `json:"secrets"`
}

// Secret is either an environment-variable mapping ({name,key,env_var}) or a
// mount mapping ({name,mount_path}). Exactly one shape must be well-formed.
type Secret struct {
	Name      string `json:"name"`
	Key       string `json:"key,omitempty"`
	EnvVar    string `json:"env_var,omitempty"`
	MountPath string `json:"mount_path,omitempty"`
}

// IsEnvVar reports whether this secret is the env-var-mapping shape.
func (s Secret) IsEnvVar() bool {
	return s.Key != "" && s.EnvVar != ""
}

// IsMount reports whether this secret is the mount-mapping shape.
func (s Secret) IsMount() bool {
	return s.MountPath != ""
}

type ParallelismSpec struct {
	Constant int `json:"constant"`
}

type ResourceRequests struct {
	Memory string `json:"memory"`
	CPU    string `json:"cpu"`
}

type Input struct {
	Atom *AtomInput `json:"atom"`
}

type AtomInput struct {
	URI  string `json:"URI"`
	Repo string `json:"repo"`
	Glob string `json:"glob"`
}

type Egress struct {
	URI string `json:"URI"`
}

var supportedSchemes = []string{"s3://", "gs://"}

// Validate enforces spec.md §4.2's rules and fills in defaults
// (datum_tries defaults to 1). It returns an *apierrors.Error with
// CodeValidation on any failure; no partial job state should be persisted
// when validation fails.
func (p *Pipeline) Validate() error {
	if strings.TrimSpace(p.Pipeline.Name) == "" {
		return validationError("pipeline.name is required")
	}

	if p.Input.Atom == nil {
		return validationError("only input.atom is supported")
	}
	atom := p.Input.Atom
	if !hasSupportedScheme(atom.URI) {
		return validationError("input.atom.URI must use a supported scheme (s3://, gs://)")
	}
	if !strings.HasPrefix(atom.Glob, "/") {
		return validationError("input.atom.glob must begin with /")
	}
	if atom.Repo == "" {
		return validationError("input.atom.repo is required")
	}

	if p.ParallelismSpec.Constant < 1 {
		return validationError("parallelism_spec.constant must be >= 1")
	}

	if p.ResourceRequests.Memory == "" {
		return validationError("resource_requests.memory is required")
	}
	if _, err := resource.ParseQuantity(p.ResourceRequests.Memory); err != nil {
		return validationError("resource_requests.memory is not a valid quantity").WithError(err)
	}
	if p.ResourceRequests.CPU == "" {
		return validationError("resource_requests.cpu is required")
	}
	if _, err := resource.ParseQuantity(p.ResourceRequests.CPU); err != nil {
		return validationError("resource_requests.cpu is not a valid quantity").WithError(err)
	}

	if p.DatumTries == 0 {
		p.DatumTries = 1
	}
	if p.DatumTries < 1 {
		return validationError("datum_tries must be >= 1")
	}

	if p.JobTimeout != "" {
		if _, err := ParseDuration(p.JobTimeout); err != nil {
			return validationError("job_timeout is not a valid duration").WithError(err)
		}
	}

	if len(p.Transform.Cmd) == 0 {
		return validationError("transform.cmd must be non-empty")
	}
	if p.Transform.Image == "" {
		return validationError("transform.image is required")
	}

	for _, s := range p.Transform.Secrets {
		if s.Name == "" {
			return validationError("transform.secrets entries require a name")
		}
		if s.IsEnvVar() == s.IsMount() {
			return validationError("transform.secrets." + s.Name + " must be exactly one of env-var or mount shape")
		}
	}

	if p.Egress.URI == "" {
		return validationError("egress.URI is required")
	}

	return nil
}

func hasSupportedScheme(uri string) bool {
	for _, scheme := range supportedSchemes {
		if strings.HasPrefix(uri, scheme) {
			return true
		}
	}
	return false
}

func validationError(message string) *apierrors.Error {
	return apierrors.NewError().WithCode(apierrors.CodeValidation).WithMessage(message)
}
