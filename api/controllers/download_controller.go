package controllers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/qrsend/api/models"
	"github.com/moyoez/qrsend/notify"
	"github.com/moyoez/qrsend/tool"
	"github.com/moyoez/qrsend/types"
)

// HandlePrepareDownload handles prepare-download request (LocalSend protocol 5.2)
// POST /api/localsend/v2/prepare-download?sessionId=xxx&pin=xxx
func HandlePrepareDownload(c *gin.Context) {
	sessionId := c.Query("sessionId")
	if sessionId == "" {
		sessionId = c.Query("session") // alternative param from URL
	}
	sessionId = strings.ToLower(sessionId)
	pin := c.Query("pin")

	if sessionId == "" {
		c.JSON(http.StatusForbidden, tool.FastReturnError("Missing sessionId"))
		return
	}

	session, ok := models.GetShareSession(sessionId)
	if !ok {
		tool.DefaultLogger.Infof("[PrepareDownload] Session not found: %s", sessionId)
		c.JSON(http.StatusForbidden, tool.FastReturnError("Session not found or expired"))
		return
	}

	if session.Pin != "" {
		if pin == "" {
			c.JSON(http.StatusUnauthorized, tool.FastReturnError("PIN required"))
			return
		}
		if pin != session.Pin {
			c.JSON(http.StatusUnauthorized, tool.FastReturnError("Invalid PIN"))
			return
		}
	}

	selfDevice := models.GetSelfDevice()
	if selfDevice == nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Device info not available"))
		return
	}

	files := models.GetShareSessionFiles(session)
	response := &types.PrepareDownloadResponse{
		Info: types.DeviceInfoReverseMode{
			Alias:       selfDevice.Alias,
			Version:     selfDevice.Version,
			DeviceModel: selfDevice.DeviceModel,
			DeviceType:  selfDevice.DeviceType,
			Fingerprint: selfDevice.Fingerprint,
			Download:    true,
		},
		SessionId: sessionId,
		Files:     files,
	}

	tool.DefaultLogger.Infof("[PrepareDownload] Returning file list for session %s, file count: %d", sessionId, len(files))
	c.JSON(http.StatusOK, response)
}

// HandleDownload handles download request (LocalSend protocol 5.3)
// GET /api/localsend/v2/download?sessionId=xxx&fileId=xxx
// A file counts as served once its bytes were written with status 200.
func HandleDownload(c *gin.Context) {
	sessionId := strings.ToLower(c.Query("sessionId"))
	fileId := c.Query("fileId")

	if sessionId == "" || fileId == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing parameters"))
		return
	}

	session, ok := models.GetShareSession(sessionId)
	if !ok {
		tool.DefaultLogger.Infof("[Download] Session not found: %s", sessionId)
		c.JSON(http.StatusForbidden, tool.FastReturnError("Session not found or expired"))
		return
	}

	entry, ok := models.LookupShareFile(session, fileId)
	if !ok {
		c.JSON(http.StatusNotFound, tool.FastReturnError("File not found"))
		return
	}

	info, err := os.Stat(entry.LocalPath)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, tool.FastReturnError("File not found on disk"))
			return
		}
		tool.DefaultLogger.Errorf("[Download] Failed to stat file: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to read file"))
		return
	}
	if info.IsDir() {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid file"))
		return
	}

	fileName := entry.FileInfo.FileName
	if fileName == "" {
		fileName = filepath.Base(entry.LocalPath)
	} else {
		fileName = filepath.Base(fileName)
	}

	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	if entry.FileInfo.FileType != "" {
		c.Header("Content-Type", entry.FileInfo.FileType)
	} else {
		c.Header("Content-Type", "application/octet-stream")
	}

	tool.DefaultLogger.Infof("[Download] Serving file: sessionId=%s, fileId=%s, path=%s", sessionId, fileId, entry.LocalPath)
	c.File(entry.LocalPath)

	if !fullyServed(c, info.Size()) {
		tool.DefaultLogger.Infof("[Download] Incomplete transfer: sessionId=%s, fileId=%s, sent %d of %d bytes", sessionId, fileId, max(c.Writer.Size(), 0), info.Size())
		return
	}
	served, ok := models.MarkShareFileServed(sessionId, fileId)
	if !ok {
		return
	}
	tool.DefaultLogger.Debugf("[Download] Session %s: %d/%d files served", sessionId, served, len(session.Files))
	notify.Publish(&types.Notification{
		Type:  types.NotifyTypeFileServed,
		Title: "File Sent",
		Data: map[string]any{
			"sessionId": sessionId,
			"fileId":    fileId,
			"fileName":  fileName,
			"served":    served,
			"total":     len(session.Files),
		},
	})
}

// fullyServed reports whether the whole file of size bytes reached the receiver. A
// partial range, a failed write or a disconnect leaves the file unserved.
func fullyServed(c *gin.Context, size int64) bool {
	if c.Writer.Status() != http.StatusOK || c.Request.Context().Err() != nil {
		return false
	}
	return int64(max(c.Writer.Size(), 0)) == size
}
