package tool

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// BuildDownloadURL builds the link embedded in the QR code, e.g. http://192.168.1.4:53317/?session=1a2b3c4d
func BuildDownloadURL(protocol, host string, port int, sessionId string) string {
	u := url.URL{
		Scheme:   protocol,
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		Path:     "/",
		RawQuery: fmt.Sprintf("session=%s", url.QueryEscape(sessionId)),
	}
	return u.String()
}
