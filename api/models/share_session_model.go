package models

import (
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"

	"github.com/moyoez/qrsend/types"
)

const (
	DefaultShareSessionTTL = 3600 * time.Second // 1 hour
)

var (
	shareSessionMu sync.RWMutex
	shareSessions  = ttlworker.NewCache[string, *types.ShareSession](DefaultShareSessionTTL)
	// fileId -> served, per session. Kept next to the session so both expire together.
	servedFiles = ttlworker.NewCache[string, map[string]struct{}](DefaultShareSessionTTL)
)

// SetShareSessionTTL replaces the share caches with ones using ttl. Existing sessions are dropped.
func SetShareSessionTTL(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	shareSessionMu.Lock()
	defer shareSessionMu.Unlock()
	shareSessions = ttlworker.NewCache[string, *types.ShareSession](ttl)
	servedFiles = ttlworker.NewCache[string, map[string]struct{}](ttl)
}

// CacheShareSession stores a share session
func CacheShareSession(session *types.ShareSession) {
	shareSessionMu.Lock()
	defer shareSessionMu.Unlock()
	shareSessions.Set(session.SessionId, session)
	servedFiles.Set(session.SessionId, make(map[string]struct{}, len(session.Files)))
}

// GetShareSession retrieves a share session by ID
func GetShareSession(sessionId string) (*types.ShareSession, bool) {
	shareSessionMu.RLock()
	defer shareSessionMu.RUnlock()
	sess := shareSessions.Get(sessionId)
	if sess == nil {
		return nil, false
	}
	return sess, true
}

// RemoveShareSession removes a share session
func RemoveShareSession(sessionId string) {
	shareSessionMu.Lock()
	defer shareSessionMu.Unlock()
	shareSessions.Delete(sessionId)
	servedFiles.Delete(sessionId)
}

// MarkShareFileServed records that fileId was fully sent once. It returns the number of
// distinct files served so far and whether the session exists.
func MarkShareFileServed(sessionId, fileId string) (int, bool) {
	shareSessionMu.Lock()
	defer shareSessionMu.Unlock()
	if shareSessions.Get(sessionId) == nil {
		return 0, false
	}
	served := servedFiles.Get(sessionId)
	if served == nil {
		served = make(map[string]struct{})
	}
	served[fileId] = struct{}{}
	servedFiles.Set(sessionId, served)
	return len(served), true
}

// IsShareSessionConsumed reports whether every file of the session has been served.
// ok is false when the session is unknown or expired.
func IsShareSessionConsumed(sessionId string) (consumed bool, ok bool) {
	shareSessionMu.RLock()
	defer shareSessionMu.RUnlock()
	sess := shareSessions.Get(sessionId)
	if sess == nil {
		return false, false
	}
	served := servedFiles.Get(sessionId)
	for fileId := range sess.Files {
		if _, done := served[fileId]; !done {
			return false, true
		}
	}
	return true, true
}

// GetShareSessionFiles returns the files map for prepare-download response
func GetShareSessionFiles(session *types.ShareSession) map[string]types.FileInfo {
	files := make(map[string]types.FileInfo, len(session.Files))
	for id, entry := range session.Files {
		files[id] = entry.FileInfo
	}
	return files
}

// LookupShareFile looks up a file in a share session
func LookupShareFile(session *types.ShareSession, fileId string) (types.ShareFileEntry, bool) {
	entry, ok := session.Files[fileId]
	return entry, ok
}
