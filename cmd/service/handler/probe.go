package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/knowhive/knowhive/app/response"
	"github.com/knowhive/knowhive/pkg/errors"
	"github.com/knowhive/knowhive/pkg/i18n"
	"github.com/knowhive/knowhive/pkg/metrics"
)

func (s *HttpSrv) Liveliness(c *gin.Context) {
	response.OK(c, gin.H{"status": "alive"})
}

// Readiness reports whether the database answers.
func (s *HttpSrv) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c, 3*time.Second)
	defer cancel()

	if err := s.Core.Store().Ping(ctx); err != nil {
		response.APIError(c, errors.New("Readiness.Ping", i18n.ERROR_INTERNAL, err))
		return
	}
	response.OK(c, gin.H{"status": "ready"})
}

func (s *HttpSrv) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c, 3*time.Second)
	defer cancel()

	database := "ok"
	if err := s.Core.Store().Ping(ctx); err != nil {
		database = "unavailable"
	}
	response.OK(c, gin.H{
		"status":   "ok",
		"database": database,
		"time":     time.Now().Unix(),
	})
}

func (s *HttpSrv) SystemMetrics(c *gin.Context) {
	path := s.Core.Cfg().ObjectStorage.LocalDir
	if path == "" {
		path = "."
	}
	snapshot, err := metrics.CollectSystem(c, path, s.Core.Cfg().Metrics.EnableLoadavg)
	if err != nil {
		response.APIError(c, errors.New("SystemMetrics.Collect", i18n.ERROR_INTERNAL, err))
		return
	}
	response.OK(c, snapshot)
}
