package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/knowhive/knowhive/app/core"
)

// HttpSrv holds what every route handler needs.
type HttpSrv struct {
	Core   *core.Core
	Engine *gin.Engine
}

// ActionRequest carries the ?action= of the action routes.
type ActionRequest struct {
	Action string `form:"action" binding:"required"`
}

type SearchRequest struct {
	Query string `form:"query" binding:"required,max=255"`
}
