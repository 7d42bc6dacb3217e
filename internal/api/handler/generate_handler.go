package handler

import (
	"Atelier/internal/api/dto"
	"Atelier/internal/pkg/response"
	"Atelier/internal/service"

	"github.com/gin-gonic/gin"
)

type GenerateHandler struct {
	generationSvc service.GenerationService
}

func NewGenerateHandler(generationSvc service.GenerationService) *GenerateHandler {
	return &GenerateHandler{
		generationSvc: generationSvc,
	}
}

// GenerateText 文生图，入队后立即返回任务ID
func (s *GenerateHandler) GenerateText(c *gin.Context) {
	userID := c.GetUint64("user_id")
	var req dto.GenerateTextDTO
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, err)
		return
	}

	result, err := s.generationSvc.EnqueueText(c.Request.Context(), userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GenerateMedia 图生图，输入图片随请求以 base64 提交
func (s *GenerateHandler) GenerateMedia(c *gin.Context) {
	userID := c.GetUint64("user_id")
	var req dto.GenerateMediaDTO
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, err)
		return
	}

	result, err := s.generationSvc.EnqueueImage(c.Request.Context(), userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetTaskStatus 轮询任务状态
func (s *GenerateHandler) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("task_id")
	if taskID == "" {
		response.Fail(c, response.BadRequest, service.ErrParamInvalid.Error())
		return
	}

	status, err := s.generationSvc.GetTaskStatus(c.Request.Context(), taskID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}
