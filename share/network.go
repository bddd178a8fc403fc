package share

import (
	"fmt"
	"net"

	"github.com/moyoez/qrsend/tool"
	"github.com/moyoez/qrsend/types"
)

// GetSelfNetworkInfos returns all valid local network interfaces with their IP and segment number.
// It ignores tun/vpn interfaces and loopback interfaces.
// The number is derived from the last octet of the IP address, 192.168.3.12 -> #12
func GetSelfNetworkInfos() []types.SelfNetworkInfo {
	var result []types.SelfNetworkInfo

	interfaces, err := net.Interfaces()
	if err != nil {
		tool.DefaultLogger.Errorf("Failed to get network interfaces: %v", err)
		return result
	}

	for _, iface := range interfaces {
		if tool.RejectUnsupportNetworkInterface(&iface) {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipnet.IP.To4()
			if ip == nil || ip.IsLoopback() {
				continue
			}
			lastOctet := int(ip[3])
			result = append(result, types.SelfNetworkInfo{
				InterfaceName: iface.Name,
				IPAddress:     ip.String(),
				Number:        fmt.Sprintf("#%d", lastOctet),
				NumberInt:     lastOctet,
			})
		}
	}
	return result
}
