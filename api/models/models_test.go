package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/qrsend/types"
)

func twoFileSession(id string) *types.ShareSession {
	return &types.ShareSession{
		SessionId: id,
		Files: map[string]types.ShareFileEntry{
			"f1": {FileInfo: types.FileInfo{ID: "f1", FileName: "a.txt"}, LocalPath: "/tmp/a.txt"},
			"f2": {FileInfo: types.FileInfo{ID: "f2", FileName: "b.jpg"}, LocalPath: "/tmp/b.jpg"},
		},
		CreatedAt: time.Now(),
	}
}

func TestShareSessionConsumedAfterEveryFile(t *testing.T) {
	CacheShareSession(twoFileSession("m1"))
	t.Cleanup(func() { RemoveShareSession("m1") })

	consumed, ok := IsShareSessionConsumed("m1")
	require.True(t, ok)
	assert.False(t, consumed)

	served, ok := MarkShareFileServed("m1", "f1")
	require.True(t, ok)
	assert.Equal(t, 1, served)
	served, _ = MarkShareFileServed("m1", "f1")
	assert.Equal(t, 1, served, "serving a file twice counts once")

	consumed, _ = IsShareSessionConsumed("m1")
	assert.False(t, consumed)

	served, _ = MarkShareFileServed("m1", "f2")
	assert.Equal(t, 2, served)
	consumed, ok = IsShareSessionConsumed("m1")
	require.True(t, ok)
	assert.True(t, consumed)
}

func TestRemovedShareSessionIsUnknown(t *testing.T) {
	CacheShareSession(twoFileSession("m2"))
	RemoveShareSession("m2")

	_, ok := GetShareSession("m2")
	assert.False(t, ok)
	_, ok = IsShareSessionConsumed("m2")
	assert.False(t, ok)
	_, ok = MarkShareFileServed("m2", "f1")
	assert.False(t, ok)
}

func TestShareSessionFiles(t *testing.T) {
	sess := twoFileSession("m3")
	files := GetShareSessionFiles(sess)
	assert.Len(t, files, 2)
	assert.Equal(t, "a.txt", files["f1"].FileName)

	entry, ok := LookupShareFile(sess, "f2")
	require.True(t, ok)
	assert.Equal(t, "/tmp/b.jpg", entry.LocalPath)
	_, ok = LookupShareFile(sess, "f9")
	assert.False(t, ok)
}

func TestUploadSessionTokens(t *testing.T) {
	CacheUploadSession(&types.UploadSession{
		SessionId: "u1",
		Dir:       "/srv/in",
		Files:     map[string]types.FileInfo{"f1": {ID: "f1"}, "f2": {ID: "f2"}},
		Tokens:    map[string]string{"f1": "t1", "f2": "t2"},
	})
	t.Cleanup(func() { RemoveUploadSession("u1") })

	_, _, ok := LookupUploadFile("u1", "f1", "wrong")
	assert.False(t, ok)
	info, sess, ok := LookupUploadFile("u1", "f1", "t1")
	require.True(t, ok)
	assert.Equal(t, "f1", info.ID)
	assert.Equal(t, "/srv/in", sess.Dir)

	RemoveUploadedFile("u1", "f1")
	_, _, ok = LookupUploadFile("u1", "f1", "t1")
	assert.False(t, ok, "a file is accepted once")
	_, ok = GetUploadSession("u1")
	assert.True(t, ok)

	RemoveUploadedFile("u1", "f2")
	_, ok = GetUploadSession("u1")
	assert.False(t, ok)
}

func TestSelfDeviceIsCopied(t *testing.T) {
	SetSelfDevice(&types.VersionMessage{Alias: "Desk"})
	got := GetSelfDevice()
	got.Alias = "changed"
	assert.Equal(t, "Desk", GetSelfDevice().Alias)
}
