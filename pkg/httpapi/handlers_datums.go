// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/faradayio/falconeri/pkg/apierrors"
	"github.com/faradayio/falconeri/pkg/model"
	"github.com/faradayio/falconeri/pkg/rest"
)

// getDatum handles GET /datums/{id}.
func (s *Server) getDatum(c *gin.Context) {
	datum, err := s.facade.GetDatum().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(apierrors.WrapError(err, "datum not found", apierrors.CodeNotFound))
		return
	}
	c.JSON(http.StatusOK, rest.SuccessResp(datum))
}

// reserveDatumRequest is POST /datums/reserve's body: the worker identifies
// itself by pod and node so the lease can be recovered by the babysitter's
// lost-pod sweep if the worker disappears.
type reserveDatumRequest struct {
	JobID    string `json:"job_id" binding:"required"`
	PodName  string `json:"pod_name" binding:"required"`
	NodeName string `json:"node_name"`
}

// reserveDatumResponse mirrors ReserveResult's three-way outcome as a
// string so a worker doesn't need the Go-side enum to decode it.
type reserveDatumResponse struct {
	Outcome    string             `json:"outcome"`
	Datum      *model.Datum       `json:"datum,omitempty"`
	InputFiles []*model.InputFile `json:"input_files,omitempty"`
}

var reserveOutcomeNames = map[int]string{
	0: "leased",
	1: "no_work",
	2: "job_done",
}

// postDatumsReserve handles POST /datums/reserve.
func (s *Server) postDatumsReserve(c *gin.Context) {
	var req reserveDatumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apierrors.WrapError(err, "invalid request body", apierrors.CodeValidation))
		return
	}

	result, err := s.leasing.ReserveDatum(c.Request.Context(), req.JobID, req.PodName, req.NodeName)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rest.SuccessResp(reserveDatumResponse{
		Outcome:    reserveOutcomeNames[int(result.Outcome)],
		Datum:      result.Datum,
		InputFiles: result.InputFiles,
	}))
}

// reportSuccessRequest is POST /datums/{id}/report-success's body.
type reportSuccessRequest struct {
	Outputs []*model.OutputFile `json:"outputs"`
	Stdout  *string             `json:"stdout"`
	Stderr  *string             `json:"stderr"`
}

// postDatumReportSuccess handles POST /datums/{id}/report-success.
func (s *Server) postDatumReportSuccess(c *gin.Context) {
	var req reportSuccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apierrors.WrapError(err, "invalid request body", apierrors.CodeValidation))
		return
	}

	if err := s.leasing.ReportSuccess(c.Request.Context(), c.Param("id"), req.Outputs, req.Stdout, req.Stderr); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rest.SuccessResp(nil))
}

// reportFailureRequest is POST /datums/{id}/report-failure's body.
type reportFailureRequest struct {
	ErrorMessage string `json:"error_message" binding:"required"`
}

// postDatumReportFailure handles POST /datums/{id}/report-failure.
func (s *Server) postDatumReportFailure(c *gin.Context) {
	var req reportFailureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apierrors.WrapError(err, "invalid request body", apierrors.CodeValidation))
		return
	}

	if err := s.leasing.ReportFailure(c.Request.Context(), c.Param("id"), req.ErrorMessage); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rest.SuccessResp(nil))
}

// postOutputFiles handles POST /output-files: a worker pre-registers an
// output URI as "running" the moment it starts writing to it, so a second
// worker racing to the same URI is caught by the unique index immediately
// rather than only at report-success time (spec.md §4.7).
type registerOutputFileRequest struct {
	DatumID string `json:"datum_id" binding:"required"`
	JobID   string `json:"job_id" binding:"required"`
	URI     string `json:"uri" binding:"required"`
}

func (s *Server) postOutputFiles(c *gin.Context) {
	var req registerOutputFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apierrors.WrapError(err, "invalid request body", apierrors.CodeValidation))
		return
	}

	file := &model.OutputFile{
		ID:      uuid.New().String(),
		DatumID: req.DatumID,
		JobID:   req.JobID,
		URI:     req.URI,
		Status:  model.OutputFileStatusRunning,
	}
	if err := s.facade.GetOutputFile().Register(c.Request.Context(), file); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rest.SuccessResp(file))
}
