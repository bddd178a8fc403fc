package tool

import (
	"flag"
	"strings"

	"github.com/moyoez/qrsend/types"
)

// SetFlags parses CLI flags and returns the override config.
func SetFlags() types.Config {
	var cfg types.Config
	flag.StringVar(&cfg.Log, "log", "", "log mode: dev|prod|none")
	flag.StringVar(&cfg.UseConfigPath, "useConfigPath", "", "override config file path")
	flag.StringVar(&cfg.UseAlias, "useAlias", "", "specify alias for the device")
	flag.IntVar(&cfg.UsePort, "usePort", 0, "override http port")
	flag.StringVar(&cfg.UseDownloadDir, "useDownloadDir", "", "override download directory for received files for this run")
	flag.StringVar(&cfg.UsePin, "usePin", "", "require this pin for prepare-download")
	flag.StringVar(&cfg.Send, "send", "", "comma separated files to register at startup")
	flag.BoolVar(&cfg.SkipNotify, "skipNotify", false, "if true, do not write notifications to the unix socket")
	flag.IntVar(&cfg.PollInterval, "pollInterval", 0, "liveness poll interval in milliseconds")
	flag.Parse()
	return cfg
}

// SplitPaths splits the -send flag value, dropping empty entries.
func SplitPaths(raw string) []string {
	var paths []string
	for p := range strings.SplitSeq(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
