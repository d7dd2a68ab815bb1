// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package httpapi

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/faradayio/falconeri/pkg/apierrors"
	"github.com/faradayio/falconeri/pkg/database"
	"github.com/faradayio/falconeri/pkg/rest"
)

// postJobs handles POST /jobs: the request body is a raw pipeline spec
// (spec.md §4.1/§4.2), not a wrapper struct.
func (s *Server) postJobs(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(apierrors.WrapError(err, "failed to read request body", apierrors.CodeValidation))
		return
	}

	job, err := s.jobs.Create(c.Request.Context(), body)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rest.SuccessResp(job))
}

// getJobs handles GET /jobs?status=&pipeline_name=&limit=&offset=.
func (s *Server) getJobs(c *gin.Context) {
	filter := database.JobFilter{
		Status:       c.Query("status"),
		PipelineName: c.Query("pipeline_name"),
		Limit:        queryInt(c, "limit", 100),
		Offset:       queryInt(c, "offset", 0),
	}

	jobs, err := s.facade.GetJob().List(c.Request.Context(), filter)
	if err != nil {
		c.Error(apierrors.WrapError(err, "failed to list jobs", apierrors.CodeInternal))
		return
	}
	c.JSON(http.StatusOK, rest.SuccessResp(rest.NewListData(jobs, len(jobs))))
}

// getJob handles GET /jobs/{id}.
func (s *Server) getJob(c *gin.Context) {
	job, err := s.facade.GetJob().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(apierrors.WrapError(err, "job not found", apierrors.CodeNotFound))
		return
	}
	c.JSON(http.StatusOK, rest.SuccessResp(job))
}

// getJobDatums handles GET /jobs/{id}/datums.
func (s *Server) getJobDatums(c *gin.Context) {
	datums, err := s.facade.GetDatum().ListByJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(apierrors.WrapError(err, "failed to list datums", apierrors.CodeInternal))
		return
	}
	c.JSON(http.StatusOK, rest.SuccessResp(rest.NewListData(datums, len(datums))))
}

// postJobRetry handles POST /jobs/{id}/retry.
func (s *Server) postJobRetry(c *gin.Context) {
	job, err := s.jobs.Retry(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rest.SuccessResp(job))
}

// postJobCancel handles POST /jobs/{id}/cancel.
func (s *Server) postJobCancel(c *gin.Context) {
	if err := s.jobs.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rest.SuccessResp(nil))
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
