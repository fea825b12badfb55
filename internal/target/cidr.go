package target

import (
	"fmt"
	"net"
	"strings"
)

// ExpandCIDR expands a CIDR range (or single IP) and a comma-separated
// port list into base URLs. Ports default to the scheme's standard port,
// which is then omitted from the URL.
func ExpandCIDR(cidr string, portsStr string, scheme string) ([]string, error) {
	ip, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		// Accept a bare IP as a /32 (or /128).
		ip = net.ParseIP(cidr)
		if ip == nil {
			return nil, fmt.Errorf("invalid CIDR or IP: %q", cidr)
		}
		mask := net.CIDRMask(32, 32)
		if ip.To4() == nil {
			mask = net.CIDRMask(128, 128)
		}
		ipnet = &net.IPNet{IP: ip, Mask: mask}
	}

	if scheme == "" {
		scheme = "http"
	}
	ports := splitPorts(portsStr)
	if len(ports) == 0 {
		if scheme == "https" {
			ports = []string{"443"}
		} else {
			ports = []string{"80"}
		}
	}

	var urls []string
	for ip := ip.Mask(ipnet.Mask); ipnet.Contains(ip); incIP(ip) {
		// Skip network and broadcast addresses for ranges wider than /31.
		ones, bits := ipnet.Mask.Size()
		if bits-ones > 1 {
			if ip.Equal(ipnet.IP) {
				continue
			}
			if ip.Equal(broadcastAddr(ipnet)) {
				continue
			}
		}

		for _, port := range ports {
			host := ip.String()
			if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
				urls = append(urls, fmt.Sprintf("%s://%s", scheme, host))
			} else {
				urls = append(urls, fmt.Sprintf("%s://%s:%s", scheme, host, port))
			}
		}
	}
	return urls, nil
}

func splitPorts(s string) []string {
	if s == "" {
		return nil
	}
	var ports []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			ports = append(ports, p)
		}
	}
	return ports
}

func incIP(ip net.IP) {
	for j := len(ip) - 1; j >= 0; j-- {
		ip[j]++
		if ip[j] > 0 {
			break
		}
	}
}

func broadcastAddr(n *net.IPNet) net.IP {
	ip := make(net.IP, len(n.IP))
	for i := range ip {
		ip[i] = n.IP[i] | ^n.Mask[i]
	}
	return ip
}
