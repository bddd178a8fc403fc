package models

import (
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"

	"github.com/moyoez/qrsend/types"
)

const DefaultUploadSessionTTL = 300 * time.Second

var (
	uploadSessionMu sync.RWMutex
	uploadSessions  = ttlworker.NewCache[string, *types.UploadSession](DefaultUploadSessionTTL)
)

// CacheUploadSession stores an accepted prepare-upload.
func CacheUploadSession(session *types.UploadSession) {
	uploadSessionMu.Lock()
	defer uploadSessionMu.Unlock()
	uploadSessions.Set(session.SessionId, session)
}

func GetUploadSession(sessionId string) (*types.UploadSession, bool) {
	uploadSessionMu.RLock()
	defer uploadSessionMu.RUnlock()
	sess := uploadSessions.Get(sessionId)
	return sess, sess != nil
}

// LookupUploadFile returns the file info if token matches the one issued for fileId.
func LookupUploadFile(sessionId, fileId, token string) (types.FileInfo, *types.UploadSession, bool) {
	uploadSessionMu.RLock()
	defer uploadSessionMu.RUnlock()
	sess := uploadSessions.Get(sessionId)
	if sess == nil {
		return types.FileInfo{}, nil, false
	}
	if expected, ok := sess.Tokens[fileId]; !ok || expected != token {
		return types.FileInfo{}, nil, false
	}
	info, ok := sess.Files[fileId]
	return info, sess, ok
}

// RemoveUploadedFile forgets fileId. The session goes away with its last file.
func RemoveUploadedFile(sessionId, fileId string) {
	uploadSessionMu.Lock()
	defer uploadSessionMu.Unlock()
	sess := uploadSessions.Get(sessionId)
	if sess == nil {
		return
	}
	delete(sess.Files, fileId)
	delete(sess.Tokens, fileId)
	if len(sess.Files) == 0 {
		uploadSessions.Delete(sessionId)
	}
}

func RemoveUploadSession(sessionId string) {
	uploadSessionMu.Lock()
	defer uploadSessionMu.Unlock()
	uploadSessions.Delete(sessionId)
}
