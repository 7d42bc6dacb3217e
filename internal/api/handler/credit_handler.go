package handler

import (
	"Atelier/internal/api/dto"
	"Atelier/internal/pkg/response"
	"Atelier/internal/pkg/util"
	"Atelier/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type CreditHandler struct {
	creditSvc     service.CreditService
	generationSvc service.GenerationService
}

func NewCreditHandler(creditSvc service.CreditService, generationSvc service.GenerationService) *CreditHandler {
	return &CreditHandler{
		creditSvc:     creditSvc,
		generationSvc: generationSvc,
	}
}

func (s *CreditHandler) GetBalance(c *gin.Context) {
	userID := c.GetUint64("user_id")
	balance, err := s.creditSvc.GetBalance(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.BalanceDTO{Balance: balance})
}

func (s *CreditHandler) TopUp(c *gin.Context) {
	userID := c.GetUint64("user_id")
	var req dto.TopUpDTO
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	err := s.creditSvc.TopUp(c.Request.Context(), userID, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *CreditHandler) ListTransactions(c *gin.Context) {
	userID := c.GetUint64("user_id")
	var query dto.PageQueryDTO
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, err)
		return
	}

	items, total, err := s.creditSvc.ListTransactions(c.Request.Context(), userID, query.Page, query.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.PageDTO{
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
		Items:    items,
	})
}

func (s *CreditHandler) GetJob(c *gin.Context) {
	userID := c.GetUint64("user_id")
	jobID, err := strconv.ParseUint(c.Param("job_id"), 10, 64)
	if err != nil {
		response.Fail(c, response.BadRequest, service.ErrParamInvalid.Error())
		return
	}

	job, err := s.generationSvc.GetJob(c.Request.Context(), userID, jobID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, job)
}

func (s *CreditHandler) ListJobs(c *gin.Context) {
	userID := c.GetUint64("user_id")
	var query dto.PageQueryDTO
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, err)
		return
	}

	page, err := s.generationSvc.ListJobs(c.Request.Context(), userID, query.Page, query.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}
