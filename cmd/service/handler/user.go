package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/knowhive/knowhive/app/logic/v1"
	"github.com/knowhive/knowhive/app/response"
	"github.com/knowhive/knowhive/pkg/types"
	"github.com/knowhive/knowhive/pkg/utils"
)

func (s *HttpSrv) CreateUser(c *gin.Context) {
	var req types.UserCreate
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	user, err := v1.NewUserLogic(c, s.Core).Create(req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.Created(c, user, response.WithModel(types.NewUserOut))
}

func (s *HttpSrv) Login(c *gin.Context) {
	var req types.UserLogin
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	res, err := v1.NewAuthLogic(c, s.Core).Login(req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, res)
}

func (s *HttpSrv) GetUser(c *gin.Context) {
	user, err := v1.NewUserLogic(c, s.Core).Get(c.Param("id"))
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, user, response.WithModel(types.NewUserOut))
}

func (s *HttpSrv) UpdateUser(c *gin.Context) {
	var req types.UserUpdate
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	user, err := v1.NewUserLogic(c, s.Core).Update(c.Param("id"), req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, user, response.WithModel(types.NewUserOut))
}

func (s *HttpSrv) DeleteUser(c *gin.Context) {
	if err := v1.NewUserLogic(c, s.Core).Delete(c.Param("id")); err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, nil)
}
