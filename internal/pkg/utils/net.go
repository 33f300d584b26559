// internal/pkg/utils/net.go
package utils

import (
	"fmt"
	"net"
)

// GetOutboundIP 获取本机用于对外通信的 IP 地址。
// 通过向外拨一个 UDP "连接"（不会真正发包）让内核选择出口网卡。
func GetOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", fmt.Errorf("failed to determine outbound ip: %w", err)
	}
	defer conn.Close()

	localAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "", fmt.Errorf("unexpected local address type: %T", conn.LocalAddr())
	}
	return localAddr.IP.String(), nil
}
