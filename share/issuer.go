// Package share issues download links for registered files and reports when they were used.
package share

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moyoez/qrsend/api/models"
	"github.com/moyoez/qrsend/tool"
	"github.com/moyoez/qrsend/types"
)

var ErrNoNetwork = errors.New("no usable LAN address")

// Issuer publishes file sets through the LocalSend download API served by this process.
type Issuer struct {
	// Host overrides the advertised address. Empty means the first usable LAN interface.
	Host     string
	Protocol string
	Port     int
	Pin      string

	lookupHosts func() []types.SelfNetworkInfo
	newID       func() string
}

func NewIssuer(protocol string, port int, pin string) *Issuer {
	return &Issuer{
		Protocol:    protocol,
		Port:        port,
		Pin:         pin,
		lookupHosts: GetSelfNetworkInfos,
		newID:       tool.GenerateShortSessionID,
	}
}

func (i *Issuer) host() (string, error) {
	if i.Host != "" {
		return i.Host, nil
	}
	if infos := i.lookupHosts(); len(infos) > 0 {
		return infos[0].IPAddress, nil
	}
	return "", ErrNoNetwork
}

// IssueLink caches a share session for files and returns its id and download URL.
func (i *Issuer) IssueLink(ctx context.Context, files []types.RegisteredFile) (types.IssuedLink, error) {
	if err := ctx.Err(); err != nil {
		return types.IssuedLink{}, err
	}
	host, err := i.host()
	if err != nil {
		return types.IssuedLink{}, err
	}

	entries := make(map[string]types.ShareFileEntry, len(files))
	for _, f := range files {
		fileId := tool.GenerateRandomUUID()
		entries[fileId] = types.ShareFileEntry{
			FileInfo: types.FileInfo{
				ID:       fileId,
				FileName: f.Name,
				Size:     f.Size,
				FileType: f.FileType,
			},
			LocalPath: f.Path,
		}
	}

	sessionId := i.newID()
	models.CacheShareSession(&types.ShareSession{
		SessionId: sessionId,
		Files:     entries,
		CreatedAt: time.Now(),
		Pin:       i.Pin,
	})

	protocol := i.Protocol
	if protocol == "" {
		protocol = "http"
	}
	link := types.IssuedLink{
		ID:      sessionId,
		Payload: tool.BuildDownloadURL(protocol, host, i.Port, sessionId),
	}
	tool.DefaultLogger.Infof("[Share] Issued link %s for %d files", link.Payload, len(files))
	return link, nil
}

// Revoke drops the share session so the link stops working.
func (i *Issuer) Revoke(id string) {
	models.RemoveShareSession(id)
	tool.DefaultLogger.Debugf("[Share] Revoked share session %s", id)
}

// Checker reports a share session consumed once every file was served.
type Checker struct{}

func (Checker) CheckConsumed(ctx context.Context, sessionId string) (bool, error) {
	consumed, ok := models.IsShareSessionConsumed(sessionId)
	if !ok {
		return false, fmt.Errorf("share session %s not found or expired", sessionId)
	}
	return consumed, nil
}
