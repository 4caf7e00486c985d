package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/knowhive/knowhive/app/logic/v1"
	"github.com/knowhive/knowhive/app/response"
	"github.com/knowhive/knowhive/pkg/types"
	"github.com/knowhive/knowhive/pkg/utils"
)

func (s *HttpSrv) CreateAssistant(c *gin.Context) {
	var req types.AssistantCreate
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	assistant, err := v1.NewAssistantLogic(c, s.Core).Create(req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.Created(c, assistant, response.WithModel(types.NewAssistantOut))
}

func (s *HttpSrv) ListAssistant(c *gin.Context) {
	list, err := v1.NewAssistantLogic(c, s.Core).List()
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, list, response.WithModel(types.NewAssistantOut))
}

func (s *HttpSrv) GetAssistant(c *gin.Context) {
	assistant, err := v1.NewAssistantLogic(c, s.Core).Get(c.Param("id"))
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, assistant, response.WithModel(types.NewAssistantOut))
}

func (s *HttpSrv) UpdateAssistant(c *gin.Context) {
	var req types.AssistantUpdate
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	assistant, err := v1.NewAssistantLogic(c, s.Core).Update(c.Param("id"), req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, assistant, response.WithModel(types.NewAssistantOut))
}

func (s *HttpSrv) DeleteAssistant(c *gin.Context) {
	if err := v1.NewAssistantLogic(c, s.Core).Delete(c.Param("id")); err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, nil)
}
