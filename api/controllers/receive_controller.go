package controllers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"

	"github.com/moyoez/qrsend/api/models"
	"github.com/moyoez/qrsend/notify"
	"github.com/moyoez/qrsend/tool"
	"github.com/moyoez/qrsend/types"
)

// ReceiveController accepts LocalSend uploads into the configured download directory.
type ReceiveController struct {
	store DirectoryStore
	pin   string
}

func NewReceiveController(store DirectoryStore, pin string) *ReceiveController {
	return &ReceiveController{store: store, pin: pin}
}

// POST /api/localsend/v2/prepare-upload?pin=xxx
func (ctrl *ReceiveController) HandlePrepareUpload(c *gin.Context) {
	if ctrl.pin != "" {
		pin := c.Query("pin")
		if pin == "" {
			c.JSON(http.StatusUnauthorized, tool.FastReturnError("PIN required"))
			return
		}
		if pin != ctrl.pin {
			c.JSON(http.StatusUnauthorized, tool.FastReturnError("Invalid PIN"))
			return
		}
	}

	body, err := c.GetRawData()
	if err != nil {
		tool.DefaultLogger.Errorf("Failed to read prepare-upload request body: %v", err)
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Failed to read request body"))
		return
	}
	var request types.PrepareUploadRequest
	if err := sonic.Unmarshal(body, &request); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body"))
		return
	}
	if len(request.Files) == 0 {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("No files"))
		return
	}

	dir, err := ctrl.store.Get(c.Request.Context())
	if err != nil {
		tool.DefaultLogger.Errorf("[PrepareUpload] Failed to resolve download directory: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Download directory not available"))
		return
	}

	sessionId := tool.GenerateRandomUUID()
	upload := &types.UploadSession{
		SessionId: sessionId,
		From:      request.Info.Alias,
		Dir:       dir,
		Files:     make(map[string]types.FileInfo, len(request.Files)),
		Tokens:    make(map[string]string, len(request.Files)),
	}
	response := &types.PrepareUploadResponse{
		SessionId: sessionId,
		Files:     make(map[string]string, len(request.Files)),
	}
	for fileId, info := range request.Files {
		token := tool.GenerateRandomUUID()
		upload.Files[fileId] = info
		upload.Tokens[fileId] = token
		response.Files[fileId] = token
	}
	models.CacheUploadSession(upload)

	tool.DefaultLogger.Infof("[PrepareUpload] Accepted %d files from %s into %s (session %s)", len(request.Files), request.Info.Alias, dir, sessionId)
	c.JSON(http.StatusOK, response)
}

// POST /api/localsend/v2/upload?sessionId=xxx&fileId=xxx&token=xxx
func (ctrl *ReceiveController) HandleUpload(c *gin.Context) {
	sessionId := c.Query("sessionId")
	fileId := c.Query("fileId")
	token := c.Query("token")
	if sessionId == "" || fileId == "" || token == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing parameters"))
		return
	}

	info, upload, ok := models.LookupUploadFile(sessionId, fileId, token)
	if !ok {
		c.JSON(http.StatusForbidden, tool.FastReturnError("Invalid token or IP address"))
		return
	}

	fileName := filepath.Base(info.FileName)
	if fileName == "." || fileName == string(filepath.Separator) || fileName == "" {
		fileName = fileId
	}
	if err := os.MkdirAll(upload.Dir, 0o755); err != nil {
		tool.DefaultLogger.Errorf("[Upload] Failed to create %s: %v", upload.Dir, err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Download directory not available"))
		return
	}
	target := tool.NextAvailablePath(upload.Dir, fileName)
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		tool.DefaultLogger.Errorf("[Upload] Failed to create %s: %v", target, err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to create file"))
		return
	}

	written, err := tool.CopyWithContext(c.Request.Context(), f, c.Request.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(target)
		tool.DefaultLogger.Errorf("[Upload] Failed to write %s: %v", target, err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to write file"))
		return
	}
	if info.Size > 0 && written != info.Size {
		_ = os.Remove(target)
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Size mismatch"))
		return
	}
	models.RemoveUploadedFile(sessionId, fileId)

	tool.DefaultLogger.Infof("[Upload] Successfully uploaded file: %s (sessionId=%s)", target, sessionId)
	notify.Publish(&types.Notification{
		Type:  types.NotifyTypeUploadEnd,
		Title: "File Received",
		Data: map[string]any{
			"sessionId": sessionId,
			"fileId":    fileId,
			"fileName":  info.FileName,
			"size":      written,
			"path":      target,
			"from":      upload.From,
		},
	})
	c.Status(http.StatusOK)
}

// POST /api/localsend/v2/cancel?sessionId=xxx
func (ctrl *ReceiveController) HandleCancel(c *gin.Context) {
	sessionId := c.Query("sessionId")
	if sessionId == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing parameters"))
		return
	}
	models.RemoveUploadSession(sessionId)
	tool.DefaultLogger.Infof("[Cancel] Removed upload session: %s", sessionId)
	c.Status(http.StatusOK)
}
