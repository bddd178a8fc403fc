package models

import (
	"sync"

	"github.com/moyoez/qrsend/types"
)

var (
	selfDeviceMu sync.RWMutex
	selfDevice   *types.VersionMessage
)

// SetSelfDevice sets the local device info returned by /info and prepare-download.
func SetSelfDevice(device *types.VersionMessage) {
	selfDeviceMu.Lock()
	defer selfDeviceMu.Unlock()
	selfDevice = device
}

func GetSelfDevice() *types.VersionMessage {
	selfDeviceMu.RLock()
	defer selfDeviceMu.RUnlock()
	if selfDevice == nil {
		return nil
	}
	copied := *selfDevice
	return &copied
}
