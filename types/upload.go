package types

type PrepareUploadRequest struct {
	Info  DeviceInfo          `json:"info"`
	Files map[string]FileInfo `json:"files"`
}

type PrepareUploadResponse struct {
	SessionId string            `json:"sessionId"`
	Files     map[string]string `json:"files"`
}

// used in https://github.com/localsend/protocol/tree/main?tab=readme-ov-file#5-reverse-file-transfer-http-aka-download-api
type PrepareDownloadResponse struct {
	Info      DeviceInfoReverseMode `json:"info"`
	SessionId string                `json:"sessionId"`
	Files     map[string]FileInfo   `json:"files"`
}

// UploadSession is an accepted prepare-upload waiting for its files.
type UploadSession struct {
	SessionId string
	From      string
	Dir       string              // destination directory, fixed when the upload was accepted
	Files     map[string]FileInfo // fileId -> info
	Tokens    map[string]string   // fileId -> token
}
