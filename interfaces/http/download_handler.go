package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fb-video-manager/domain/dto"
	"fb-video-manager/infrastructure/logger"
	"fb-video-manager/usecase"
)

type IDownloadHandler interface {
	Download(ctx *gin.Context)
	BatchDownload(ctx *gin.Context)
	DownloadStatus(ctx *gin.Context)
}

type DownloadHandler struct {
	downloadUsecase usecase.IDownloadUsecase
}

func NewDownloadHandler(downloadUsecase usecase.IDownloadUsecase) IDownloadHandler {
	return &DownloadHandler{downloadUsecase: downloadUsecase}
}

func (h *DownloadHandler) Download(ctx *gin.Context) {
	var req dto.DownloadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, err := h.downloadUsecase.StartDownload(&req)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	logger.GetLogger().WithField("url", req.URL).WithField("download_id", id).Info("Download queued")
	ctx.JSON(http.StatusAccepted, gin.H{"id": id, "status": "queued"})
}

func (h *DownloadHandler) BatchDownload(ctx *gin.Context) {
	var req dto.BatchDownloadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ids, err := h.downloadUsecase.StartBatch(&req)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusAccepted, gin.H{"ids": ids, "count": len(ids)})
}

func (h *DownloadHandler) DownloadStatus(ctx *gin.Context) {
	status, err := h.downloadUsecase.GetStatus(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrDownloadNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, status)
}
