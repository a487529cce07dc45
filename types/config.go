package types

// AppConfig represents the application configuration loaded from config file
type AppConfig struct {
	Nickname             string `yaml:"nickname"`
	Port                 int    `yaml:"port"`
	MaxFileSize          int64  `yaml:"maxFileSize"`          // bytes
	ChunkSize            int64  `yaml:"chunkSize"`            // bytes
	SessionExpireMinutes int    `yaml:"sessionExpireMinutes"` // unclaimed/idle session lifetime
	ChunkDir             string `yaml:"chunkDir"`
	HistoryDBPath        string `yaml:"historyDBPath"`
}

// Config holds runtime overrides from CLI flags
type Config struct {
	Log           string
	UseConfigPath string
	UsePort       int
	UseChunkDir   string
	UseHistoryDB  string
	UseNickname   string
}

// PolicyResponse is the read-only transfer policy clients fetch once at
// startup. GET /api/transfer/v1/config
type PolicyResponse struct {
	MaxFileSize          int64 `json:"maxFileSize"`
	ChunkSize            int64 `json:"chunkSize"`
	SessionExpireMinutes int   `json:"sessionExpireMinutes"`
}
