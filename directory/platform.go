package directory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/moyoez/qrsend/tool"
	"github.com/moyoez/qrsend/types"
)

// XDGResolver resolves the user's Downloads folder.
type XDGResolver struct{}

func (XDGResolver) ResolveDefaultDirectory(ctx context.Context) (string, error) {
	if dir := xdg.UserDirs.Download; dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("no home directory: %v", err)
	}
	return filepath.Join(home, "Downloads"), nil
}

// ConfigPersister keeps the directory under downloadDir in the config file.
type ConfigPersister struct{}

func (ConfigPersister) LoadDirectory() (string, error) {
	return tool.GetCurrentConfig().DownloadDir, nil
}

func (ConfigPersister) PersistDirectory(path string) error {
	return tool.UpdateConfig(func(cfg *types.AppConfig) {
		cfg.DownloadDir = path
	})
}
