package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moyoez/qrsend/api/models"
	"github.com/moyoez/qrsend/types"
)

type stubSender struct{}

func (stubSender) Register(ctx context.Context, paths []string) ([]types.RegisteredFile, error) {
	return nil, nil
}
func (stubSender) Remove(path string)            {}
func (stubSender) Clear()                        {}
func (stubSender) Files() []types.RegisteredFile { return nil }
func (stubSender) CreateSession(ctx context.Context) (types.TransferSession, error) {
	return types.TransferSession{}, nil
}
func (stubSender) CancelSession() bool                    { return false }
func (stubSender) Session() (types.TransferSession, bool) { return types.TransferSession{}, false }
func (stubSender) Status() types.SenderStatus             { return types.SenderStatus{State: "idle"} }

type stubStore struct{}

func (stubStore) Get(ctx context.Context) (string, error) { return "/tmp", nil }
func (stubStore) Set(path string) error                   { return nil }

func request(h http.Handler, remote, target string) int {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = remote
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Code
}

func TestRoutes(t *testing.T) {
	models.SetSelfDevice(&types.VersionMessage{Alias: "Desk", Version: "2.1"})
	h := NewServer(0, "http", Deps{Sender: stubSender{}, Directory: stubStore{}}).Handler()

	assert.Equal(t, http.StatusOK, request(h, "192.168.1.9:5000", "/api/localsend/v2/info"))
	assert.Equal(t, http.StatusNotFound, request(h, "192.168.1.9:5000", "/?session=none"))
	assert.Equal(t, http.StatusForbidden, request(h, "192.168.1.9:5000", "/api/self/v1/send/session"))
	assert.Equal(t, http.StatusOK, request(h, "127.0.0.1:5000", "/api/self/v1/send/session"))
	assert.Equal(t, http.StatusOK, request(h, "127.0.0.1:5000", "/api/self/v1/download-dir"))
	assert.Equal(t, http.StatusNotFound, request(h, "127.0.0.1:5000", "/api/self/v1/notify-ws"), "no hub, no websocket route")
}

func TestRateLimitedPublicAPI(t *testing.T) {
	models.SetSelfDevice(&types.VersionMessage{Alias: "Desk"})
	h := NewServer(0, "http", Deps{Sender: stubSender{}, Directory: stubStore{}, RateLimit: 1}).Handler()

	codes := []int{}
	for range 3 {
		codes = append(codes, request(h, "10.1.1.1:1", "/api/localsend/v2/info"))
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestPublicAPIAllowsCrossOrigin(t *testing.T) {
	models.SetSelfDevice(&types.VersionMessage{Alias: "Desk"})
	h := NewServer(0, "http", Deps{Sender: stubSender{}, Directory: stubStore{}}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/localsend/v2/info", nil)
	req.Header.Set("Origin", "http://web.localsend.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestShutdownBeforeStart(t *testing.T) {
	assert.NoError(t, NewServer(0, "http", Deps{}).Shutdown(context.Background()))
}
