package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fb-video-manager/domain/model"
	"fb-video-manager/infrastructure/filecsv"
	"fb-video-manager/infrastructure/logger"
	"fb-video-manager/usecase"
)

type IFileHandler interface {
	ListFiles(ctx *gin.Context)
	ExportFiles(ctx *gin.Context)
	ListDiskFiles(ctx *gin.Context)
	ServeDiskFile(ctx *gin.Context)
	DeleteDiskFile(ctx *gin.Context)
}

type FileHandler struct {
	libraryUsecase usecase.ILibraryUsecase
}

func NewFileHandler(libraryUsecase usecase.ILibraryUsecase) IFileHandler {
	return &FileHandler{libraryUsecase: libraryUsecase}
}

func (h *FileHandler) ListFiles(ctx *gin.Context) {
	filter := model.DownloadedFileFilter{
		Search:   ctx.Query("search"),
		Category: ctx.Query("category"),
		Status:   ctx.Query("status"),
	}
	if v := ctx.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := ctx.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}
	files, err := h.libraryUsecase.ListFiles(ctx.Request.Context(), filter)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if files == nil {
		files = []*model.DownloadedFile{}
	}
	ctx.JSON(http.StatusOK, gin.H{"files": files, "count": len(files)})
}

// ExportFiles streams the library as a CSV download.
func (h *FileHandler) ExportFiles(ctx *gin.Context) {
	filter := model.DownloadedFileFilter{
		Search:   ctx.Query("search"),
		Category: ctx.Query("category"),
		Status:   ctx.Query("status"),
		Limit:    200,
	}
	files, err := h.libraryUsecase.ListFiles(ctx.Request.Context(), filter)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.Header("Content-Type", "text/csv")
	ctx.Header("Content-Disposition", `attachment; filename="library.csv"`)
	if err := filecsv.WriteDownloadedFiles(ctx.Writer, files); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error exporting library CSV")
	}
}

func (h *FileHandler) ListDiskFiles(ctx *gin.Context) {
	files, err := h.libraryUsecase.ListDiskFiles()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"files": files, "count": len(files)})
}

// ServeDiskFile sends one download-directory file as an attachment.
func (h *FileHandler) ServeDiskFile(ctx *gin.Context) {
	name := ctx.Param("name")
	path, err := h.libraryUsecase.ResolveDiskFile(name)
	if err != nil {
		if errors.Is(err, usecase.ErrUnsafeName) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	ctx.FileAttachment(path, name)
}

func (h *FileHandler) DeleteDiskFile(ctx *gin.Context) {
	name := ctx.Param("name")
	if err := h.libraryUsecase.DeleteDiskFile(ctx.Request.Context(), name); err != nil {
		switch {
		case errors.Is(err, usecase.ErrUnsafeName):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, usecase.ErrFileNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"deleted": true, "name": name})
}
