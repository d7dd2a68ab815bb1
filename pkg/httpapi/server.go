// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package httpapi implements C9, the daemon's HTTP surface: job CRUD, job
// lifecycle (retry/cancel), and the worker-only datum leasing endpoints.
package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/faradayio/falconeri/pkg/database"
	"github.com/faradayio/falconeri/pkg/httpapi/middleware"
	"github.com/faradayio/falconeri/pkg/service"
)

// Server groups the facade and services every handler needs. It holds no
// state of its own; each request is independent.
type Server struct {
	facade  database.FacadeInterface
	jobs    *service.JobService
	leasing *service.LeasingService
}

// NewServer builds a Server over an already-constructed facade and
// scheduler plus their derived services.
func NewServer(facade database.FacadeInterface, jobs *service.JobService, leasing *service.LeasingService) *Server {
	return &Server{facade: facade, jobs: jobs, leasing: leasing}
}

// NewRouter assembles the gin engine: recovery, logging, error-handling,
// request timeout, then auth, mirroring the teacher's middleware chain
// order but with the SaFE/LDAP dynamic auth replaced by a single
// pre-shared secret check (spec.md §4.9). requestTimeout bounds every
// request (FALCONERI_REQUEST_TIMEOUT, spec.md §6).
func NewRouter(s *Server, sharedSecret string, requestTimeout time.Duration) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	g := engine.Group("/v1")
	g.Use(middleware.HandleLogging())
	g.Use(middleware.HandleErrors())
	g.Use(middleware.HandleTimeout(requestTimeout))
	g.Use(middleware.HandleAuth(sharedSecret))

	g.POST("/jobs", s.postJobs)
	g.GET("/jobs", s.getJobs)
	g.GET("/jobs/:id", s.getJob)
	g.GET("/jobs/:id/datums", s.getJobDatums)
	g.POST("/jobs/:id/retry", s.postJobRetry)
	g.POST("/jobs/:id/cancel", s.postJobCancel)

	g.GET("/datums/:id", s.getDatum)
	g.POST("/datums/reserve", s.postDatumsReserve)
	g.POST("/datums/:id/report-success", s.postDatumReportSuccess)
	g.POST("/datums/:id/report-failure", s.postDatumReportFailure)

	g.POST("/output-files", s.postOutputFiles)

	engine.GET("/healthz", healthz)
	return engine
}

func healthz(c *gin.Context) {
	c.Status(200)
}
