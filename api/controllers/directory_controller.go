package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/qrsend/directory"
	"github.com/moyoez/qrsend/tool"
)

// DirectoryStore is where received files are written.
type DirectoryStore interface {
	Get(ctx context.Context) (string, error)
	Set(path string) error
}

type DirectoryController struct {
	store DirectoryStore
}

func NewDirectoryController(store DirectoryStore) *DirectoryController {
	return &DirectoryController{store: store}
}

// GET /api/self/v1/download-dir
func (ctrl *DirectoryController) HandleGet(c *gin.Context) {
	dir, err := ctrl.store.Get(c.Request.Context())
	if err != nil {
		tool.DefaultLogger.Errorf("[Directory] Failed to resolve download directory: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(gin.H{"path": dir}))
}

// HandleSet validates the chosen directory before storing it.
// PUT /api/self/v1/download-dir {"path": "..."}
func (ctrl *DirectoryController) HandleSet(c *gin.Context) {
	var req struct {
		Path string `json:"path"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Path == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing parameter: path"))
		return
	}
	if err := directory.ValidateDirectory(req.Path); err != nil {
		if errors.Is(err, directory.ErrDirectoryValidationFailed) {
			c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, tool.FastReturnError(err.Error()))
		return
	}
	if err := ctrl.store.Set(req.Path); err != nil {
		tool.DefaultLogger.Errorf("[Directory] Failed to persist download directory: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to save download directory"))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(gin.H{"path": req.Path}))
}
