package share

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/qrsend/api/models"
	"github.com/moyoez/qrsend/types"
)

func newTestIssuer(hosts ...string) *Issuer {
	i := NewIssuer("http", 53317, "")
	i.lookupHosts = func() []types.SelfNetworkInfo {
		infos := make([]types.SelfNetworkInfo, 0, len(hosts))
		for _, h := range hosts {
			infos = append(infos, types.SelfNetworkInfo{IPAddress: h})
		}
		return infos
	}
	i.newID = func() string { return "1a2b3c4d" }
	return i
}

var files = []types.RegisteredFile{
	{Path: "/tmp/a.txt", Name: "a.txt", Size: 3, Extension: "txt", FileType: "text/plain"},
	{Path: "/tmp/b.jpg", Name: "b.jpg", Size: 10, Extension: "jpg", FileType: "image/jpeg"},
}

func TestIssueLinkCachesShareSession(t *testing.T) {
	i := newTestIssuer("192.168.1.4", "10.0.0.2")
	t.Cleanup(func() { models.RemoveShareSession("1a2b3c4d") })

	link, err := i.IssueLink(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, "1a2b3c4d", link.ID)
	assert.Equal(t, "http://192.168.1.4:53317/?session=1a2b3c4d", link.Payload)

	sess, ok := models.GetShareSession(link.ID)
	require.True(t, ok)
	require.Len(t, sess.Files, 2)
	byPath := map[string]types.ShareFileEntry{}
	for id, entry := range sess.Files {
		assert.Equal(t, id, entry.FileInfo.ID)
		byPath[entry.LocalPath] = entry
	}
	assert.Equal(t, "b.jpg", byPath["/tmp/b.jpg"].FileInfo.FileName)
	assert.Equal(t, "image/jpeg", byPath["/tmp/b.jpg"].FileInfo.FileType)
	assert.EqualValues(t, 3, byPath["/tmp/a.txt"].FileInfo.Size)
}

func TestIssueLinkHostOverride(t *testing.T) {
	i := newTestIssuer()
	i.Host = "deck.local"
	t.Cleanup(func() { models.RemoveShareSession("1a2b3c4d") })

	link, err := i.IssueLink(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, "http://deck.local:53317/?session=1a2b3c4d", link.Payload)
}

func TestIssueLinkWithoutNetwork(t *testing.T) {
	i := newTestIssuer()
	_, err := i.IssueLink(context.Background(), files)
	assert.ErrorIs(t, err, ErrNoNetwork)
	_, ok := models.GetShareSession("1a2b3c4d")
	assert.False(t, ok)
}

func TestCheckerConsumedAfterAllFilesServed(t *testing.T) {
	i := newTestIssuer("192.168.1.4")
	link, err := i.IssueLink(context.Background(), files)
	require.NoError(t, err)
	t.Cleanup(func() { models.RemoveShareSession(link.ID) })

	var c Checker
	consumed, err := c.CheckConsumed(context.Background(), link.ID)
	require.NoError(t, err)
	assert.False(t, consumed)

	sess, _ := models.GetShareSession(link.ID)
	var ids []string
	for id := range sess.Files {
		ids = append(ids, id)
	}
	models.MarkShareFileServed(link.ID, ids[0])
	models.MarkShareFileServed(link.ID, ids[0])
	consumed, err = c.CheckConsumed(context.Background(), link.ID)
	require.NoError(t, err)
	assert.False(t, consumed)

	models.MarkShareFileServed(link.ID, ids[1])
	consumed, err = c.CheckConsumed(context.Background(), link.ID)
	require.NoError(t, err)
	assert.True(t, consumed)
}

func TestCheckerUnknownSessionIsAnError(t *testing.T) {
	var c Checker
	_, err := c.CheckConsumed(context.Background(), "missing")
	assert.Error(t, err)
}

func TestRevoke(t *testing.T) {
	i := newTestIssuer("192.168.1.4")
	link, err := i.IssueLink(context.Background(), files)
	require.NoError(t, err)

	i.Revoke(link.ID)
	_, ok := models.GetShareSession(link.ID)
	assert.False(t, ok)
}
