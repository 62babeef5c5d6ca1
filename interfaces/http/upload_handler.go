package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fb-video-manager/domain/dto"
	"fb-video-manager/infrastructure/logger"
	"fb-video-manager/usecase"
)

type IUploadHandler interface {
	Preview(ctx *gin.Context)
	Confirm(ctx *gin.Context)
}

type UploadHandler struct {
	uploadUsecase usecase.IUploadUsecase
}

func NewUploadHandler(uploadUsecase usecase.IUploadUsecase) IUploadHandler {
	return &UploadHandler{uploadUsecase: uploadUsecase}
}

func (h *UploadHandler) Preview(ctx *gin.Context) {
	var req dto.UploadPreviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	preview, err := h.uploadUsecase.Preview(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(uploadErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, preview)
}

func (h *UploadHandler) Confirm(ctx *gin.Context) {
	var req dto.UploadConfirmRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := h.uploadUsecase.Confirm(ctx.Request.Context(), &req)
	if err != nil {
		logger.GetLogger().WithField("file", req.FilePath).WithField("error", err.Error()).Warn("Upload failed")
		ctx.JSON(uploadErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, result)
}

func uploadErrorStatus(err error) int {
	if errors.Is(err, usecase.ErrVideoFileMissing) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
