// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
)

var validConfigJSON = `{
    "rpc_list": [
        "https://api.mainnet-beta.solana.com",
        "https://solana-api.projectserum.com"
    ],
    "commitment": "confirmed",
    "skip_preflight": true,
    "send_retries": 3,
    "poll_interval": 250,
    "debug_logging": true,
    "log_file": "logs/sender.log",
    "metrics_addr": ":9090"
}`

var invalidConfigJSON = `{
    "rpc_list": [],
    "poll_interval": -1
}`

func setupTestConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return configPath
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
		check   func(*Config) bool
	}{
		{
			name:    "Valid config",
			content: validConfigJSON,
			wantErr: false,
			check: func(cfg *Config) bool {
				return len(cfg.RPCList) == 2 &&
					cfg.Commitment == "confirmed" &&
					cfg.SkipPreflight &&
					cfg.SendRetries == 3 &&
					cfg.PollInterval == 250 &&
					cfg.MetricsAddr == ":9090"
			},
		},
		{
			name:    "Invalid config - empty required fields",
			content: invalidConfigJSON,
			wantErr: true,
			check:   nil,
		},
		{
			name:    "Invalid JSON syntax",
			content: "{invalid json",
			wantErr: true,
			check:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := setupTestConfig(t, tt.content)

			cfg, err := LoadConfig(configPath)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && tt.check != nil {
				if !tt.check(cfg) {
					t.Error("LoadConfig() returned invalid configuration")
				}
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{
			name: "Valid configuration",
			cfg: &Config{
				RPCList:      []string{"https://test-rpc.com"},
				Commitment:   "finalized",
				SendRetries:  1,
				PollInterval: 500,
			},
			wantErr: false,
		},
		{
			name: "Empty RPC list",
			cfg: &Config{
				RPCList:      []string{},
				Commitment:   "finalized",
				SendRetries:  1,
				PollInterval: 500,
			},
			wantErr: true,
		},
		{
			name: "Non-HTTP RPC URL",
			cfg: &Config{
				RPCList:      []string{"ws://test-rpc.com"},
				Commitment:   "finalized",
				SendRetries:  1,
				PollInterval: 500,
			},
			wantErr: true,
		},
		{
			name: "Unknown commitment",
			cfg: &Config{
				RPCList:      []string{"https://test-rpc.com"},
				Commitment:   "instant",
				SendRetries:  1,
				PollInterval: 500,
			},
			wantErr: true,
		},
		{
			name: "Invalid send retries",
			cfg: &Config{
				RPCList:      []string{"https://test-rpc.com"},
				Commitment:   "finalized",
				SendRetries:  0,
				PollInterval: 500,
			},
			wantErr: true,
		},
		{
			name: "Invalid poll interval",
			cfg: &Config{
				RPCList:      []string{"https://test-rpc.com"},
				Commitment:   "finalized",
				SendRetries:  1,
				PollInterval: -1,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidationDetails(t *testing.T) {
	tests := []struct {
		name          string
		config        Config
		expectedError string
	}{
		{
			name: "Invalid RPC URL",
			config: Config{
				RPCList:      []string{"invalid-url"},
				Commitment:   "finalized",
				SendRetries:  1,
				PollInterval: 500,
			},
			expectedError: "invalid RPC URL protocol",
		},
		{
			name: "Invalid commitment level",
			config: Config{
				RPCList:      []string{"https://details-test.com"},
				Commitment:   "instant",
				SendRetries:  1,
				PollInterval: 500,
			},
			expectedError: "invalid commitment level",
		},
		{
			name: "Invalid send retries",
			config: Config{
				RPCList:      []string{"https://details-test.com"},
				Commitment:   "confirmed",
				SendRetries:  -1,
				PollInterval: 500,
			},
			expectedError: "invalid send_retries count",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(&tt.config)
			if err == nil {
				t.Error("Expected error but got nil")
				return
			}
			if err.Error() != tt.expectedError {
				t.Errorf("Expected error '%s', got '%s'", tt.expectedError, err.Error())
			}
		})
	}
}

func TestLoadConfigEnvironmentVariables(t *testing.T) {
	os.Clearenv()

	t.Setenv("SOLANA_SENDER_RPC_LIST", "https://env-rpc1.com, https://env-rpc2.com")
	t.Setenv("SOLANA_SENDER_COMMITMENT", "processed")

	configJSON := `{
        "rpc_list": ["https://file-rpc.com"],
        "commitment": "finalized"
    }`

	configPath := setupTestConfig(t, configJSON)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	expectedRPCs := []string{"https://env-rpc1.com", "https://env-rpc2.com"}
	if len(cfg.RPCList) != len(expectedRPCs) {
		t.Fatalf("Expected %d RPCs, got %d", len(expectedRPCs), len(cfg.RPCList))
	}
	for i, rpc := range expectedRPCs {
		if cfg.RPCList[i] != rpc {
			t.Errorf("Expected RPC %s, got %s", rpc, cfg.RPCList[i])
		}
	}

	if cfg.Commitment != "processed" {
		t.Errorf("Expected commitment from env var to be 'processed', got %s", cfg.Commitment)
	}
	if cfg.CommitmentType() != solanarpc.CommitmentProcessed {
		t.Errorf("Expected processed commitment type, got %s", cfg.CommitmentType())
	}
}

func TestLoadConfigWithDefaults(t *testing.T) {
	configJSON := `{
		"rpc_list": ["https://defaults-test.com"]
	}`

	configPath := setupTestConfig(t, configJSON)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Commitment != DefaultCommitment {
		t.Errorf("Expected default commitment %s, got %s", DefaultCommitment, cfg.Commitment)
	}
	if cfg.SendRetries != DefaultSendRetries {
		t.Errorf("Expected default SendRetries %d, got %d", DefaultSendRetries, cfg.SendRetries)
	}
	if cfg.PollInterval != DefaultPollInterval {
		t.Errorf("Expected default PollInterval %d, got %d", DefaultPollInterval, cfg.PollInterval)
	}
	if cfg.LogFile != DefaultLogFile {
		t.Errorf("Expected default LogFile %s, got %s", DefaultLogFile, cfg.LogFile)
	}
	if cfg.PollDelay() != 500*time.Millisecond {
		t.Errorf("Expected 500ms poll delay, got %s", cfg.PollDelay())
	}
	if cfg.CommitmentType() != solanarpc.CommitmentFinalized {
		t.Errorf("Expected finalized commitment type, got %s", cfg.CommitmentType())
	}
}
