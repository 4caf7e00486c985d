package service

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/knowhive/knowhive/app/core"
	"github.com/knowhive/knowhive/app/response"
	"github.com/knowhive/knowhive/cmd/service/handler"
	"github.com/knowhive/knowhive/cmd/service/middleware"
	"github.com/knowhive/knowhive/pkg/metrics"
	"github.com/knowhive/knowhive/pkg/utils"
)

func serve(core *core.Core) error {
	httpSrv := &handler.HttpSrv{
		Core:   core,
		Engine: core.HttpEngine(),
	}
	setupHttpRouter(httpSrv)

	slog.Info("http server listening", slog.String("addr", core.Cfg().Addr))
	return httpSrv.Engine.Run(core.Cfg().Addr)
}

func GetIPLimitBuilder(appCore *core.Core) middleware.LimiterFunc {
	return func(key string, opts ...core.LimitOption) gin.HandlerFunc {
		return middleware.UseLimit(appCore, key, func(c *gin.Context) string {
			return c.ClientIP()
		}, opts...)
	}
}

func setupHttpRouter(s *handler.HttpSrv) {
	utils.RegisterBindingRules()

	s.Engine.Use(gin.Recovery(), middleware.Cors(s.Core.Cfg().Cors.Origins), middleware.I18n(), response.NewResponse(), middleware.Metrics(s.Core))

	s.Engine.GET("/liveliness", s.Liveliness)
	s.Engine.GET("/readiness", s.Readiness)
	s.Engine.GET("/health", s.Health)
	s.Engine.GET("/metrics", metrics.DefaultExportHandler())
	s.Engine.GET("/metrics/system", s.SystemMetrics)

	limit := GetIPLimitBuilder(s.Core)

	apiV1 := s.Engine.Group("/api/v1")
	apiV1.Use(middleware.Session(s.Core))
	{
		user := apiV1.Group("/user")
		user.POST("/create", limit("user_create"), s.CreateUser)
		user.POST("/login", limit("user_login"), s.Login)
	}

	authed := apiV1.Group("")
	authed.Use(middleware.Authorization(s.Core), limit("api"))
	{
		user := authed.Group("/user")
		user.GET("/:id", s.GetUser)
		user.PUT("/:id", s.UpdateUser)
		user.DELETE("/:id", s.DeleteUser)

		llm := authed.Group("/llm")
		llm.POST("/create", s.CreateLLM)
		llm.GET("/list", s.ListLLM)
		llm.GET("/:id", s.GetLLM)
		llm.PUT("/:id", s.UpdateLLM)
		llm.DELETE("/:id", s.DeleteLLM)
		llm.POST("/:id/verify", s.VerifyLLM)

		kb := authed.Group("/kb")
		kb.POST("/create", s.CreateKnowledgeBase)
		kb.GET("/list", s.ListKnowledgeBase)
		kb.GET("/search", s.SearchKnowledgeBase)
		kb.PUT("/action/:kbid", s.KnowledgeBaseAction)
		kb.GET("/:kbid", s.GetKnowledgeBase)
		kb.PUT("/:kbid", s.UpdateKnowledgeBase)
		kb.DELETE("/:kbid", s.DeleteKnowledgeBase)

		document := kb.Group("/:kbid/document")
		document.POST("/upload", s.UploadDocument)
		document.GET("/list", s.ListDocument)
		document.PUT("/action/:docid", s.DocumentAction)
		document.GET("/:docid", s.GetDocument)
		document.GET("/:docid/file", s.DownloadDocument)
		document.PUT("/:docid", s.UpdateDocument)
		document.DELETE("/:docid", s.DeleteDocument)

		chunk := document.Group("/:docid/chunk")
		chunk.POST("/create", s.CreateChunk)
		chunk.GET("/list", s.ListChunk)
		chunk.GET("/search", s.SearchChunk)
		chunk.PUT("/action/:chunkid", s.ChunkAction)
		chunk.GET("/:chunkid", s.GetChunk)
		chunk.PUT("/:chunkid", s.UpdateChunk)
		chunk.DELETE("/:chunkid", s.DeleteChunk)

		assistant := authed.Group("/assistant")
		assistant.POST("/create", s.CreateAssistant)
		assistant.GET("/list", s.ListAssistant)
		assistant.GET("/:id", s.GetAssistant)
		assistant.PUT("/:id", s.UpdateAssistant)
		assistant.DELETE("/:id", s.DeleteAssistant)
	}
}
