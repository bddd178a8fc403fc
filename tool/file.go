package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"github.com/moyoez/qrsend/types"
)

// LocalMetadataResolver reads file records from the local filesystem.
// A batch fails as a whole if any path cannot be described.
type LocalMetadataResolver struct{}

func (LocalMetadataResolver) ResolveMetadata(ctx context.Context, paths []string) ([]types.RegisteredFile, error) {
	files := make([]types.RegisteredFile, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		file, err := GetFileInfoFromPath(p)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// GetFileInfoFromPath describes a regular file. Directories are rejected.
func GetFileInfoFromPath(filePath string) (types.RegisteredFile, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return types.RegisteredFile{}, fmt.Errorf("failed to stat file: %v", err)
	}
	if info.IsDir() {
		return types.RegisteredFile{}, fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	fileType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(filePath); err == nil {
		fileType = mt.String()
	} else {
		DefaultLogger.Debugf("Failed to detect mime type of %s: %v", filePath, err)
	}

	return types.RegisteredFile{
		Path:      filePath,
		Name:      filepath.Base(filePath),
		Size:      info.Size(),
		Extension: strings.TrimPrefix(filepath.Ext(filePath), "."),
		FileType:  fileType,
		SizeText:  humanize.Bytes(uint64(info.Size())),
	}, nil
}
