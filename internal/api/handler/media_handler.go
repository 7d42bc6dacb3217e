package handler

import (
	"Atelier/internal/api/dto"
	"Atelier/internal/pkg/response"
	"Atelier/internal/service"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
)

type MediaHandler struct {
	mediaSvc service.MediaService
}

func NewMediaHandler(mediaSvc service.MediaService) *MediaHandler {
	return &MediaHandler{
		mediaSvc: mediaSvc,
	}
}

func (s *MediaHandler) Upload(c *gin.Context) {
	userID := c.GetUint64("user_id")
	file, err := c.FormFile("file")
	if err != nil || file == nil {
		response.Fail(c, response.BadRequest, service.ErrParamInvalid.Error())
		return
	}

	reader, err := file.Open()
	if err != nil {
		response.Error(c, err)
		return
	}
	defer func() {
		_ = reader.Close()
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		response.Error(c, err)
		return
	}

	mediaDTO, err := s.mediaSvc.Upload(c.Request.Context(), userID, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, mediaDTO)
}

func (s *MediaHandler) ListMedia(c *gin.Context) {
	userID := c.GetUint64("user_id")
	var listDTO dto.ListMediaDTO
	if err := c.ShouldBindQuery(&listDTO); err != nil {
		response.Error(c, err)
		return
	}

	page, err := s.mediaSvc.ListMedia(c.Request.Context(), userID, &listDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

func (s *MediaHandler) GetMedia(c *gin.Context) {
	userID := c.GetUint64("user_id")
	mediaID, err := strconv.ParseUint(c.Param("media_id"), 10, 64)
	if err != nil {
		response.Fail(c, response.BadRequest, service.ErrParamInvalid.Error())
		return
	}

	mediaDTO, err := s.mediaSvc.GetMedia(c.Request.Context(), userID, mediaID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, mediaDTO)
}

func (s *MediaHandler) UpdateMedia(c *gin.Context) {
	userID := c.GetUint64("user_id")
	mediaID, err := strconv.ParseUint(c.Param("media_id"), 10, 64)
	if err != nil {
		response.Fail(c, response.BadRequest, service.ErrParamInvalid.Error())
		return
	}

	var updateDTO dto.UpdateMediaDTO
	if err = c.ShouldBind(&updateDTO); err != nil {
		response.Error(c, err)
		return
	}

	err = s.mediaSvc.UpdateMedia(c.Request.Context(), userID, mediaID, &updateDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *MediaHandler) DeleteMedia(c *gin.Context) {
	userID := c.GetUint64("user_id")
	mediaID, err := strconv.ParseUint(c.Param("media_id"), 10, 64)
	if err != nil {
		response.Fail(c, response.BadRequest, service.ErrParamInvalid.Error())
		return
	}

	err = s.mediaSvc.DeleteMedia(c.Request.Context(), userID, mediaID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *MediaHandler) RateMedia(c *gin.Context) {
	userID := c.GetUint64("user_id")
	mediaID, err := strconv.ParseUint(c.Param("media_id"), 10, 64)
	if err != nil {
		response.Fail(c, response.BadRequest, service.ErrParamInvalid.Error())
		return
	}

	var rateDTO dto.RateMediaDTO
	if err = c.ShouldBind(&rateDTO); err != nil {
		response.Error(c, err)
		return
	}

	err = s.mediaSvc.RateMedia(c.Request.Context(), userID, mediaID, *rateDTO.ThumbUp)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *MediaHandler) AddComment(c *gin.Context) {
	userID := c.GetUint64("user_id")
	mediaID, err := strconv.ParseUint(c.Param("media_id"), 10, 64)
	if err != nil {
		response.Fail(c, response.BadRequest, service.ErrParamInvalid.Error())
		return
	}

	var commentDTO dto.AddCommentDTO
	if err = c.ShouldBind(&commentDTO); err != nil {
		response.Error(c, err)
		return
	}

	result, err := s.mediaSvc.AddComment(c.Request.Context(), userID, mediaID, &commentDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (s *MediaHandler) ListComments(c *gin.Context) {
	mediaID, err := strconv.ParseUint(c.Param("media_id"), 10, 64)
	if err != nil {
		response.Fail(c, response.BadRequest, service.ErrParamInvalid.Error())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := s.mediaSvc.ListComments(c.Request.Context(), mediaID, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (s *MediaHandler) DeleteComment(c *gin.Context) {
	userID := c.GetUint64("user_id")
	commentID, err := strconv.ParseUint(c.Param("comment_id"), 10, 64)
	if err != nil {
		response.Fail(c, response.BadRequest, service.ErrParamInvalid.Error())
		return
	}

	err = s.mediaSvc.DeleteComment(c.Request.Context(), userID, commentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *MediaHandler) SearchMedia(c *gin.Context) {
	var searchDTO dto.SearchMediaDTO
	if err := c.ShouldBindQuery(&searchDTO); err != nil {
		response.Error(c, err)
		return
	}

	result, err := s.mediaSvc.SearchMedia(c.Request.Context(), &searchDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
