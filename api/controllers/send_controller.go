package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/qrsend/intake"
	"github.com/moyoez/qrsend/session"
	"github.com/moyoez/qrsend/tool"
	"github.com/moyoez/qrsend/types"
)

// SenderService is the sending side as seen by the local API.
type SenderService interface {
	Register(ctx context.Context, paths []string) ([]types.RegisteredFile, error)
	Remove(path string)
	Clear()
	Files() []types.RegisteredFile
	CreateSession(ctx context.Context) (types.TransferSession, error)
	CancelSession() bool
	Session() (types.TransferSession, bool)
	Status() types.SenderStatus
}

// DropPublisher accepts drop events, normally an intake.Dispatcher.
type DropPublisher interface {
	Publish(ctx context.Context, paths []string) int
}

type SendController struct {
	sender SenderService
	drops  DropPublisher
}

func NewSendController(sender SenderService, drops DropPublisher) *SendController {
	return &SendController{sender: sender, drops: drops}
}

type PathsRequest struct {
	Paths []string `json:"paths"`
}

func bindPaths(c *gin.Context) ([]string, bool) {
	var req PathsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body"))
		return nil, false
	}
	paths := make([]string, 0, len(req.Paths))
	for _, p := range req.Paths {
		if p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("No paths provided"))
		return nil, false
	}
	return paths, true
}

// HandleDrop publishes a drop event. Registration happens on the sender's subscription.
// delivered counts subscriptions the batch was handed to, not registered files: a batch
// that lands while a consumed session is being reset is logged and discarded, and the
// paths have to be dropped again.
// POST /api/self/v1/send/drop
func (ctrl *SendController) HandleDrop(c *gin.Context) {
	paths, ok := bindPaths(c)
	if !ok {
		return
	}
	if ctrl.drops == nil {
		c.JSON(http.StatusServiceUnavailable, tool.FastReturnError("Drop events not available"))
		return
	}
	delivered := ctrl.drops.Publish(c.Request.Context(), paths)
	tool.DefaultLogger.Debugf("[Send] Drop of %d paths delivered to %d subscribers", len(paths), delivered)
	c.JSON(http.StatusAccepted, tool.FastReturnSuccessWithData(gin.H{"delivered": delivered}))
}

// HandleRegister registers paths and returns the records that were newly added.
// POST /api/self/v1/send/files
func (ctrl *SendController) HandleRegister(c *gin.Context) {
	paths, ok := bindPaths(c)
	if !ok {
		return
	}
	added, err := ctrl.sender.Register(c.Request.Context(), paths)
	if err != nil {
		if errors.Is(err, intake.ErrMetadataResolutionFailed) {
			c.JSON(http.StatusUnprocessableEntity, tool.FastReturnError(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, tool.FastReturnError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(gin.H{
		"added": added,
		"files": ctrl.sender.Files(),
	}))
}

func (ctrl *SendController) HandleListFiles(c *gin.Context) {
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(ctrl.sender.Files()))
}

// DELETE /api/self/v1/send/files?path=xxx
func (ctrl *SendController) HandleRemoveFile(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing parameter: path"))
		return
	}
	ctrl.sender.Remove(path)
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

func (ctrl *SendController) HandleClearFiles(c *gin.Context) {
	ctrl.sender.Clear()
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

// HandleCreateSession issues a link for the registered files.
// POST /api/self/v1/send/session
func (ctrl *SendController) HandleCreateSession(c *gin.Context) {
	sess, err := ctrl.sender.CreateSession(c.Request.Context())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(sess))
	case errors.Is(err, session.ErrInvalidSessionRequest):
		status := http.StatusConflict
		if len(ctrl.sender.Files()) == 0 {
			status = http.StatusBadRequest
		}
		c.JSON(status, tool.FastReturnError(err.Error()))
	case errors.Is(err, session.ErrLinkIssuanceFailed):
		tool.DefaultLogger.Errorf("[Send] %v", err)
		c.JSON(http.StatusBadGateway, tool.FastReturnError(err.Error()))
	case errors.Is(err, session.ErrWatchFailed):
		tool.DefaultLogger.Errorf("[Send] %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, tool.FastReturnError(err.Error()))
	}
}

func (ctrl *SendController) HandleCancelSession(c *gin.Context) {
	cancelled := ctrl.sender.CancelSession()
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(gin.H{"cancelled": cancelled}))
}

func (ctrl *SendController) HandleSessionStatus(c *gin.Context) {
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(ctrl.sender.Status()))
}

// HandleSessionQRCode renders the active session's link as a PNG.
// GET /api/self/v1/send/session/qr?size=256
func (ctrl *SendController) HandleSessionQRCode(c *gin.Context) {
	sess, ok := ctrl.sender.Session()
	if !ok {
		c.JSON(http.StatusNotFound, tool.FastReturnError("No active session"))
		return
	}
	writeQRCode(c, sess.Payload, c.Query("size"))
}
