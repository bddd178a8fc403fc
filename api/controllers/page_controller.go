package controllers

import (
	"html/template"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/moyoez/qrsend/api/models"
	"github.com/moyoez/qrsend/tool"
)

var downloadPage = template.Must(template.New("download").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Alias}}</title></head>
<body style="font-family:sans-serif;max-width:40em;margin:2em auto;padding:0 1em">
<h2>{{.Alias}}</h2>
{{if .Error}}<p>{{.Error}}</p>{{end}}
{{if .AskPin}}<form method="get"><input type="hidden" name="session" value="{{.SessionId}}">
<input name="pin" placeholder="PIN" autofocus> <button type="submit">Open</button></form>{{end}}
{{if .Files}}<ul>{{range .Files}}<li><a href="{{.Href}}" download>{{.Name}}</a> ({{.Size}})</li>{{end}}</ul>{{end}}
</body></html>`))

type pageFile struct {
	Name string
	Size string
	Href string
}

type pageData struct {
	Alias     string
	SessionId string
	Error     string
	AskPin    bool
	Files     []pageFile
}

// HandleDownloadPage renders the page the QR link opens in a browser.
// GET /?session=xxx&pin=xxx
func HandleDownloadPage(c *gin.Context) {
	data := pageData{Alias: "qrsend"}
	if self := models.GetSelfDevice(); self != nil {
		data.Alias = self.Alias
	}
	sessionId := strings.ToLower(c.Query("session"))
	data.SessionId = sessionId

	session, ok := models.GetShareSession(sessionId)
	if sessionId == "" || !ok {
		data.Error = "This link has expired or was already used."
		renderPage(c, http.StatusNotFound, data)
		return
	}
	if session.Pin != "" && c.Query("pin") != session.Pin {
		data.AskPin = true
		if c.Query("pin") != "" {
			data.Error = "Invalid PIN"
		}
		renderPage(c, http.StatusUnauthorized, data)
		return
	}

	for id, entry := range session.Files {
		q := url.Values{"sessionId": {sessionId}, "fileId": {id}}
		data.Files = append(data.Files, pageFile{
			Name: entry.FileInfo.FileName,
			Size: humanize.Bytes(uint64(entry.FileInfo.Size)),
			Href: "/api/localsend/v2/download?" + q.Encode(),
		})
	}
	sort.Slice(data.Files, func(i, j int) bool { return data.Files[i].Name < data.Files[j].Name })
	renderPage(c, http.StatusOK, data)
}

func renderPage(c *gin.Context, status int, data pageData) {
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := downloadPage.Execute(c.Writer, data); err != nil {
		tool.DefaultLogger.Errorf("[Page] Failed to render download page: %v", err)
	}
}
