package config

import (
	"net/url"
	"os"
	"sync"
)

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker returns true if the application is running inside a Docker container.
// Detection is based on the presence of /.dockerenv file which exists in all Docker containers.
// The result is cached after the first call.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		isDockerResult = err == nil
	})
	return isDockerResult
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1"
}

// ResolveBindAddrForDocker widens a loopback bind address to all interfaces
// when running in Docker. Other addresses are returned unchanged.
func ResolveBindAddrForDocker(addr string) string {
	if IsRunningInDocker() && isLoopback(addr) {
		return "0.0.0.0"
	}
	return addr
}

// ResolveURLForDocker points a loopback URL at host.docker.internal when
// running in Docker, so a JWKS endpoint served on the host stays reachable.
// Unparseable URLs and non-loopback hosts are returned unchanged.
func ResolveURLForDocker(rawURL string) string {
	if !IsRunningInDocker() {
		return rawURL
	}
	return rewriteLoopbackHost(rawURL)
}

func rewriteLoopbackHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || !isLoopback(u.Hostname()) {
		return rawURL
	}
	if port := u.Port(); port != "" {
		u.Host = "host.docker.internal:" + port
	} else {
		u.Host = "host.docker.internal"
	}
	return u.String()
}
