// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/viper"
)

type Config struct {
	RPCList       []string `mapstructure:"rpc_list"`
	Commitment    string   `mapstructure:"commitment"`
	SkipPreflight bool     `mapstructure:"skip_preflight"`
	SendRetries   int      `mapstructure:"send_retries"`
	PollInterval  int      `mapstructure:"poll_interval"` // milliseconds
	DebugLogging  bool     `mapstructure:"debug_logging"`
	LogFile       string   `mapstructure:"log_file"`
	MetricsAddr   string   `mapstructure:"metrics_addr"`
}

const (
	DefaultCommitment   = "finalized"
	DefaultSendRetries  = 1
	DefaultPollInterval = 500
	DefaultLogFile      = "sender.log"
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"commitment":    DefaultCommitment,
		"send_retries":  DefaultSendRetries,
		"poll_interval": DefaultPollInterval,
		"log_file":      DefaultLogFile,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

// CommitmentType maps the configured name onto the RPC client's type.
func (c *Config) CommitmentType() solanarpc.CommitmentType {
	switch c.Commitment {
	case "processed":
		return solanarpc.CommitmentProcessed
	case "confirmed":
		return solanarpc.CommitmentConfirmed
	default:
		return solanarpc.CommitmentFinalized
	}
}

// PollDelay returns the poll interval as a duration.
func (c *Config) PollDelay() time.Duration {
	return time.Duration(c.PollInterval) * time.Millisecond
}

func validateConfig(cfg *Config) error {
	if len(cfg.RPCList) == 0 {
		return errors.New("rpc_list is empty")
	}
	for _, rpcURL := range cfg.RPCList {
		if err := validateURLWithCache(rpcURL, "http"); err != nil {
			return errors.New("invalid RPC URL protocol")
		}
	}
	switch cfg.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return errors.New("invalid commitment level")
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.SendRetries <= 0 {
		return errors.New("invalid send_retries count")
	}
	if cfg.PollInterval <= 0 {
		return errors.New("invalid poll_interval")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("SOLANA_SENDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envRPCList := v.GetString("RPC_LIST")
	if envRPCList != "" {
		rpcs := strings.Split(envRPCList, ",")
		var cleanRPCs []string
		for _, rpc := range rpcs {
			clean := strings.TrimSpace(rpc)
			if clean != "" {
				cleanRPCs = append(cleanRPCs, clean)
			}
		}
		if len(cleanRPCs) > 0 {
			cfg.RPCList = cleanRPCs
		}
	}

	envCommitment := v.GetString("COMMITMENT")
	if envCommitment != "" {
		cfg.Commitment = envCommitment
	}
	return nil
}
