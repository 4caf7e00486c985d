package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/knowhive/knowhive/app/logic/v1"
	"github.com/knowhive/knowhive/app/response"
	"github.com/knowhive/knowhive/pkg/types"
	"github.com/knowhive/knowhive/pkg/utils"
)

func (s *HttpSrv) CreateChunk(c *gin.Context) {
	var req types.ChunkCreate
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	chunk, err := v1.NewChunkLogic(c, s.Core).Create(c.Param("kbid"), c.Param("docid"), req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.Created(c, chunk, response.WithModel(types.NewChunkOut))
}

func (s *HttpSrv) ListChunk(c *gin.Context) {
	list, err := v1.NewChunkLogic(c, s.Core).List(c.Param("kbid"), c.Param("docid"))
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, list, response.WithModel(types.NewChunkOut))
}

func (s *HttpSrv) SearchChunk(c *gin.Context) {
	var req SearchRequest
	if err := utils.BindQueryWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	list, err := v1.NewChunkLogic(c, s.Core).Search(c.Param("kbid"), c.Param("docid"), req.Query)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, list, response.WithModel(types.NewChunkOut))
}

func (s *HttpSrv) GetChunk(c *gin.Context) {
	chunk, err := v1.NewChunkLogic(c, s.Core).Get(c.Param("kbid"), c.Param("docid"), c.Param("chunkid"))
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, chunk, response.WithModel(types.NewChunkOut))
}

func (s *HttpSrv) UpdateChunk(c *gin.Context) {
	var req types.ChunkUpdate
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	chunk, err := v1.NewChunkLogic(c, s.Core).Update(c.Param("kbid"), c.Param("docid"), c.Param("chunkid"), req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, chunk, response.WithModel(types.NewChunkOut))
}

func (s *HttpSrv) ChunkAction(c *gin.Context) {
	var req ActionRequest
	if err := utils.BindQueryWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	chunk, err := v1.NewChunkLogic(c, s.Core).Action(c.Param("kbid"), c.Param("docid"), c.Param("chunkid"), req.Action)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, chunk, response.WithModel(types.NewChunkOut))
}

func (s *HttpSrv) DeleteChunk(c *gin.Context) {
	if err := v1.NewChunkLogic(c, s.Core).Delete(c.Param("kbid"), c.Param("docid"), c.Param("chunkid")); err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, nil)
}
