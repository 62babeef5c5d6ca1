package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fb-video-manager/domain/dto"
	"fb-video-manager/usecase"
)

type IAnalyticsHandler interface {
	Summary(ctx *gin.Context)
	GetSetting(ctx *gin.Context)
	SetSetting(ctx *gin.Context)
}

type AnalyticsHandler struct {
	libraryUsecase usecase.ILibraryUsecase
}

func NewAnalyticsHandler(libraryUsecase usecase.ILibraryUsecase) IAnalyticsHandler {
	return &AnalyticsHandler{libraryUsecase: libraryUsecase}
}

func (h *AnalyticsHandler) Summary(ctx *gin.Context) {
	days := 30
	if v := ctx.Query("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			days = n
		}
	}
	summary, err := h.libraryUsecase.AnalyticsSummary(ctx.Request.Context(), days)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, summary)
}

func (h *AnalyticsHandler) GetSetting(ctx *gin.Context) {
	key := ctx.Param("key")
	value, err := h.libraryUsecase.GetSetting(ctx.Request.Context(), key)
	if err != nil {
		if errors.Is(err, usecase.ErrSettingNotSet) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

func (h *AnalyticsHandler) SetSetting(ctx *gin.Context) {
	key := ctx.Param("key")
	var req dto.SettingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.libraryUsecase.SetSetting(ctx.Request.Context(), key, req.Value); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"key": key, "value": req.Value})
}
