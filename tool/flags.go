package tool

import (
	"flag"

	"github.com/moyoez/codedrop/types"
)

// SetFlags parses CLI flags and returns the override config.
func SetFlags() types.Config {
	var cfg types.Config
	flag.StringVar(&cfg.Log, "log", "", "log mode: dev|prod|none")
	flag.StringVar(&cfg.UseConfigPath, "useConfigPath", "", "override config file path")
	flag.IntVar(&cfg.UsePort, "usePort", 0, "override listen port")
	flag.StringVar(&cfg.UseChunkDir, "useChunkDir", "", "override chunk spool directory")
	flag.StringVar(&cfg.UseHistoryDB, "useHistoryDB", "", "override history database path")
	flag.StringVar(&cfg.UseNickname, "useNickname", "", "specify nickname for this instance")
	flag.Parse()
	return cfg
}
