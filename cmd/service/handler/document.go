package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/knowhive/knowhive/app/logic/v1"
	"github.com/knowhive/knowhive/app/response"
	"github.com/knowhive/knowhive/pkg/errors"
	"github.com/knowhive/knowhive/pkg/i18n"
	"github.com/knowhive/knowhive/pkg/types"
	"github.com/knowhive/knowhive/pkg/utils"
)

type UploadDocumentRequest struct {
	Parser string `form:"parser" binding:"omitempty,max=64"`
}

func (s *HttpSrv) UploadDocument(c *gin.Context) {
	var req UploadDocumentRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		response.APIError(c, errors.New("UploadDocument.FormFile", i18n.ERROR_VALIDATION, err).Code(http.StatusBadRequest).
			WithData(map[string]any{"fields": map[string][]string{"file": {i18n.FIELD_RULE_PREFIX + "required"}}}))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.APIError(c, errors.New("UploadDocument.Open", i18n.ERROR_FILE_READ_FAIL, err).Code(http.StatusBadRequest))
		return
	}
	defer file.Close()

	doc, err := v1.NewDocumentLogic(c, s.Core).Upload(c.Param("kbid"), v1.DocumentUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
		Parser:      req.Parser,
	})
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.Created(c, doc, response.WithModel(types.NewDocumentOut))
}

func (s *HttpSrv) ListDocument(c *gin.Context) {
	list, err := v1.NewDocumentLogic(c, s.Core).List(c.Param("kbid"))
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, list, response.WithModel(types.NewDocumentOut))
}

func (s *HttpSrv) GetDocument(c *gin.Context) {
	doc, err := v1.NewDocumentLogic(c, s.Core).Get(c.Param("kbid"), c.Param("docid"))
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, doc, response.WithModel(types.NewDocumentOut))
}

func (s *HttpSrv) DownloadDocument(c *gin.Context) {
	doc, obj, err := v1.NewDocumentLogic(c, s.Core).File(c.Param("kbid"), c.Param("docid"))
	if err != nil {
		response.APIError(c, err)
		return
	}
	defer obj.Body.Close()

	response.Stream(c, obj.Body, obj.Size, doc.Name, obj.ContentType)
}

func (s *HttpSrv) UpdateDocument(c *gin.Context) {
	var req types.DocumentUpdate
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	doc, err := v1.NewDocumentLogic(c, s.Core).Update(c.Param("kbid"), c.Param("docid"), req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, doc, response.WithModel(types.NewDocumentOut))
}

func (s *HttpSrv) DocumentAction(c *gin.Context) {
	var req ActionRequest
	if err := utils.BindQueryWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	doc, err := v1.NewDocumentLogic(c, s.Core).Action(c.Param("kbid"), c.Param("docid"), req.Action)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, doc, response.WithModel(types.NewDocumentOut))
}

func (s *HttpSrv) DeleteDocument(c *gin.Context) {
	if err := v1.NewDocumentLogic(c, s.Core).Delete(c.Param("kbid"), c.Param("docid")); err != nil {
		response.APIError(c, err)
		return
	}
	response.OK(c, nil)
}
