package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/knowhive/knowhive/app/logic/v1"
	"github.com/knowhive/knowhive/app/response"
	"github.com/knowhive/knowhive/pkg/types"
	"github.com/knowhive/knowhive/pkg/utils"
)

func (s *HttpSrv) CreateLLM(c *gin.Context) {
	var req types.LLMCreate
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	llm, err := v1.NewLLMLogic(c, s.Core).Create(req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.Created(c, llm, response.WithModel(types.NewLLMOut))
}

func (s *HttpSrv) ListLLM(c *gin.Context) {
	list, err := v1.NewLLMLogic(c, s.Core).List()
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, list, response.WithModel(types.NewLLMOut))
}

func (s *HttpSrv) GetLLM(c *gin.Context) {
	llm, err := v1.NewLLMLogic(c, s.Core).Get(c.Param("id"))
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, llm, response.WithModel(types.NewLLMOut))
}

func (s *HttpSrv) UpdateLLM(c *gin.Context) {
	var req types.LLMUpdate
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	llm, err := v1.NewLLMLogic(c, s.Core).Update(c.Param("id"), req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, llm, response.WithModel(types.NewLLMOut))
}

func (s *HttpSrv) DeleteLLM(c *gin.Context) {
	if err := v1.NewLLMLogic(c, s.Core).Delete(c.Param("id")); err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, nil)
}

func (s *HttpSrv) VerifyLLM(c *gin.Context) {
	res, err := v1.NewLLMLogic(c, s.Core).Verify(c.Param("id"))
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, res)
}
