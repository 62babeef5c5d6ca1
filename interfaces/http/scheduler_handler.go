package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fb-video-manager/usecase"
)

type ISchedulerHandler interface {
	Status(ctx *gin.Context)
	Start(ctx *gin.Context)
	Stop(ctx *gin.Context)
	Process(ctx *gin.Context)
}

type SchedulerHandler struct {
	schedulerUsecase usecase.ISchedulerUsecase
}

func NewSchedulerHandler(schedulerUsecase usecase.ISchedulerUsecase) ISchedulerHandler {
	return &SchedulerHandler{schedulerUsecase: schedulerUsecase}
}

func (h *SchedulerHandler) Status(ctx *gin.Context) {
	status, err := h.schedulerUsecase.Status(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, status)
}

func (h *SchedulerHandler) Start(ctx *gin.Context) {
	h.schedulerUsecase.Start()
	ctx.JSON(http.StatusOK, gin.H{"running": h.schedulerUsecase.Running()})
}

func (h *SchedulerHandler) Stop(ctx *gin.Context) {
	h.schedulerUsecase.Stop()
	ctx.JSON(http.StatusOK, gin.H{"running": h.schedulerUsecase.Running()})
}

// Process runs one scheduler tick synchronously, independent of the loop.
func (h *SchedulerHandler) Process(ctx *gin.Context) {
	if err := h.schedulerUsecase.ProcessDuePosts(ctx.Request.Context()); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"processed": false, "error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"processed": true})
}
