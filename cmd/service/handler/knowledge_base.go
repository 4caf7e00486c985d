package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/knowhive/knowhive/app/logic/v1"
	"github.com/knowhive/knowhive/app/response"
	"github.com/knowhive/knowhive/pkg/types"
	"github.com/knowhive/knowhive/pkg/utils"
)

func (s *HttpSrv) CreateKnowledgeBase(c *gin.Context) {
	var req types.KnowledgeBaseCreate
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	kb, err := v1.NewKnowledgeBaseLogic(c, s.Core).Create(req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.Created(c, kb, response.WithModel(types.NewKnowledgeBaseOut))
}

func (s *HttpSrv) ListKnowledgeBase(c *gin.Context) {
	list, err := v1.NewKnowledgeBaseLogic(c, s.Core).List()
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, list, response.WithModel(types.NewKnowledgeBaseOut))
}

func (s *HttpSrv) SearchKnowledgeBase(c *gin.Context) {
	var req SearchRequest
	if err := utils.BindQueryWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	list, err := v1.NewKnowledgeBaseLogic(c, s.Core).Search(req.Query)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, list, response.WithModel(types.NewKnowledgeBaseOut))
}

func (s *HttpSrv) GetKnowledgeBase(c *gin.Context) {
	kb, err := v1.NewKnowledgeBaseLogic(c, s.Core).Get(c.Param("kbid"))
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, kb, response.WithModel(types.NewKnowledgeBaseOut))
}

func (s *HttpSrv) UpdateKnowledgeBase(c *gin.Context) {
	var req types.KnowledgeBaseUpdate
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	kb, err := v1.NewKnowledgeBaseLogic(c, s.Core).Update(c.Param("kbid"), req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, kb, response.WithModel(types.NewKnowledgeBaseOut))
}

func (s *HttpSrv) DeleteKnowledgeBase(c *gin.Context) {
	if err := v1.NewKnowledgeBaseLogic(c, s.Core).Delete(c.Param("kbid")); err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, nil)
}

func (s *HttpSrv) KnowledgeBaseAction(c *gin.Context) {
	var req ActionRequest
	if err := utils.BindQueryWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	kb, err := v1.NewKnowledgeBaseLogic(c, s.Core).Action(c.Param("kbid"), req.Action)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, kb, response.WithModel(types.NewKnowledgeBaseOut))
}
