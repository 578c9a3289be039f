// internal/logger/config.go
package logger

type Config struct {
	LogFile     string
	MaxSize     int  // megabytes
	MaxAge      int  // days
	MaxBackups  int  // rotated files kept
	Compress    bool // gzip rotated files
	Development bool
}

// DefaultConfig returns the rotation and verbosity defaults.
func DefaultConfig() *Config {
	return &Config{
		LogFile:     "sender.log",
		MaxSize:     100, // 100 MB
		MaxAge:      7,   // 7 days
		MaxBackups:  3,   // 3 files
		Compress:    true,
		Development: false,
	}
}
