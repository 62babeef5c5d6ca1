package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fb-video-manager/domain/dto"
	"fb-video-manager/domain/model"
	"fb-video-manager/infrastructure/logger"
	"fb-video-manager/usecase"
)

type IPostHandler interface {
	CreatePost(ctx *gin.Context)
	GetPost(ctx *gin.Context)
	ListPosts(ctx *gin.Context)
	PatchPost(ctx *gin.Context)
	DeletePost(ctx *gin.Context)
	CancelPost(ctx *gin.Context)
	PublishNow(ctx *gin.Context)
	Upcoming(ctx *gin.Context)
	CancelUpcoming(ctx *gin.Context)
}

type PostHandler struct {
	postUsecase     usecase.IPostUsecase
	upcomingUsecase usecase.IUpcomingUsecase
}

func NewPostHandler(postUsecase usecase.IPostUsecase, upcomingUsecase usecase.IUpcomingUsecase) IPostHandler {
	return &PostHandler{postUsecase: postUsecase, upcomingUsecase: upcomingUsecase}
}

func (h *PostHandler) CreatePost(ctx *gin.Context) {
	var req dto.CreatePostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	post, err := h.postUsecase.Create(ctx.Request.Context(), &req)
	if err != nil {
		logger.GetLogger().WithField("error", err.Error()).Warn("Create post failed")
		ctx.JSON(postErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, post)
}

func (h *PostHandler) GetPost(ctx *gin.Context) {
	id, ok := postID(ctx)
	if !ok {
		return
	}
	post, err := h.postUsecase.Get(ctx.Request.Context(), id)
	if err != nil {
		ctx.JSON(postErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, post)
}

func (h *PostHandler) ListPosts(ctx *gin.Context) {
	filter := model.ScheduledPostFilter{Status: ctx.Query("status")}
	if v := ctx.Query("start_time"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.StartTime = n
		}
	}
	if v := ctx.Query("end_time"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.EndTime = n
		}
	}
	posts, err := h.postUsecase.List(ctx.Request.Context(), filter)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"posts": posts, "count": len(posts)})
}

func (h *PostHandler) PatchPost(ctx *gin.Context) {
	id, ok := postID(ctx)
	if !ok {
		return
	}
	var req dto.PatchPostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	post, err := h.postUsecase.Patch(ctx.Request.Context(), id, &req)
	if err != nil {
		ctx.JSON(postErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, post)
}

func (h *PostHandler) DeletePost(ctx *gin.Context) {
	id, ok := postID(ctx)
	if !ok {
		return
	}
	if err := h.postUsecase.Delete(ctx.Request.Context(), id); err != nil {
		ctx.JSON(postErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"deleted": true, "id": id})
}

func (h *PostHandler) CancelPost(ctx *gin.Context) {
	id, ok := postID(ctx)
	if !ok {
		return
	}
	post, err := h.postUsecase.Cancel(ctx.Request.Context(), id)
	if err != nil {
		ctx.JSON(postErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, post)
}

func (h *PostHandler) PublishNow(ctx *gin.Context) {
	var req dto.PublishNowRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := h.postUsecase.PublishNow(ctx.Request.Context(), &req)
	if err != nil {
		logger.GetLogger().WithField("file", req.VideoFilePath).WithField("error", err.Error()).Warn("Publish now failed")
		ctx.JSON(postErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, result)
}

func (h *PostHandler) Upcoming(ctx *gin.Context) {
	items, err := h.upcomingUsecase.Upcoming(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if items == nil {
		items = []*model.UpcomingItem{}
	}
	ctx.JSON(http.StatusOK, gin.H{"upcoming": items, "count": len(items)})
}

func (h *PostHandler) CancelUpcoming(ctx *gin.Context) {
	remoteID := ctx.Param("remoteId")
	if remoteID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "remote post id is required"})
		return
	}
	if err := h.upcomingUsecase.CancelRemote(ctx.Request.Context(), remoteID); err != nil {
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"cancelled": true, "remote_post_id": remoteID})
}

func postID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return 0, false
	}
	return id, true
}

func postErrorStatus(err error) int {
	switch {
	case errors.Is(err, usecase.ErrPostNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrNotCancellable):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrPastSchedule), errors.Is(err, usecase.ErrEmptyPatch),
		errors.Is(err, usecase.ErrVideoFileMissing):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
