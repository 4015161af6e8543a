package ch

import (
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// buildClientInfo returns a ClientInfo describing this process so server
// side query logs can tell environments apart
func buildClientInfo(name, tag string) clickhouse.ClientInfo {
	if name == "" {
		name = "scanhub"
	}
	if tag == "" {
		tag = "dev"
	}
	host, _ := os.Hostname()

	type kv = struct{ Name, Version string }
	products := []kv{
		{Name: name, Version: tag},
		{Name: "go", Version: strings.TrimSpace(runtime.Version())},
		{Name: "commit", Version: vcsShortSHA()},
		{Name: "host", Version: strings.TrimSpace(host)},
	}
	return clickhouse.ClientInfo{Products: products}
}

func vcsShortSHA() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				return s.Value[:7]
			}
		}
	}
	return "unknown"
}
