package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvVars = []string{
	"AQDASH_SERVER_PORT", "AQDASH_SERVER_READ_TIMEOUT", "AQDASH_SERVER_WRITE_TIMEOUT",
	"AQDASH_SECURITY_ALLOWED_ORIGINS", "AQDASH_SECURITY_ENABLE_CORS",
	"AQDASH_LOGGING_LEVEL", "AQDASH_LOGGING_FORMAT", "AQDASH_LOGGING_OUTPUT",
	"AQDASH_PATHS_DATA_DIR", "AQDASH_PATHS_DATASETS_DIR", "AQDASH_PATHS_LOGS_DIR",
	"AQDASH_DATASETS_BASE_URL", "AQDASH_DATASETS_LOAD_TIMEOUT",
	"AQDASH_WEBSOCKET_READ_BUFFER_SIZE", "AQDASH_WEBSOCKET_WRITE_BUFFER_SIZE",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, envVar := range configEnvVars {
		if val := os.Getenv(envVar); val != "" {
			orig := val
			name := envVar
			t.Cleanup(func() { os.Setenv(name, orig) })
		} else {
			name := envVar
			t.Cleanup(func() { os.Unsetenv(name) })
		}
		os.Unsetenv(envVar)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func()
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "default configuration with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
				assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)

				assert.Equal(t, []string{"http://localhost:8080"}, cfg.Security.AllowedOrigins)
				assert.True(t, cfg.Security.EnableCORS)
				assert.True(t, cfg.Security.RateLimit.Enabled)
				assert.Equal(t, 100.0, cfg.Security.RateLimit.RPS)
				assert.Equal(t, 50, cfg.Security.RateLimit.Burst)

				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "both", cfg.Logging.Output)

				assert.Equal(t, "data", cfg.Paths.DataDir)
				assert.Equal(t, "data/datasets", cfg.Paths.DatasetsDir)
				assert.Equal(t, "data/exports", cfg.Paths.ExportsDir)
				assert.Equal(t, "logs", cfg.Paths.LogsDir)

				assert.Empty(t, cfg.Datasets.BaseURL)
				assert.Equal(t, 2*time.Minute, cfg.Datasets.LoadTimeout)

				assert.Equal(t, 1024, cfg.WebSocket.ReadBufferSize)
				assert.Equal(t, 30*time.Second, cfg.WebSocket.PingPeriod)
			},
		},
		{
			name: "custom environment variables",
			setupEnv: func() {
				os.Setenv("AQDASH_SERVER_PORT", "9090")
				os.Setenv("AQDASH_SERVER_READ_TIMEOUT", "30s")
				os.Setenv("AQDASH_SECURITY_ALLOWED_ORIGINS", "http://example.com,https://example.com")
				os.Setenv("AQDASH_LOGGING_LEVEL", "debug")
				os.Setenv("AQDASH_LOGGING_FORMAT", "text")
				os.Setenv("AQDASH_DATASETS_BASE_URL", "https://data.example.gov/airquality")
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, []string{"http://example.com", "https://example.com"}, cfg.Security.AllowedOrigins)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format) // validate() forces json
				assert.Equal(t, "https://data.example.gov/airquality", cfg.Datasets.BaseURL)
			},
		},
		{
			name: "invalid port number",
			setupEnv: func() {
				os.Setenv("AQDASH_SERVER_PORT", "99999")
			},
			wantErr: true,
		},
		{
			name: "zero port number",
			setupEnv: func() {
				os.Setenv("AQDASH_SERVER_PORT", "0")
			},
			wantErr: true,
		},
		{
			name: "negative timeout",
			setupEnv: func() {
				os.Setenv("AQDASH_SERVER_READ_TIMEOUT", "-5s")
			},
			wantErr: true,
		},
		{
			name: "empty allowed origins",
			setupEnv: func() {
				os.Setenv("AQDASH_SECURITY_ALLOWED_ORIGINS", "")
			},
			wantErr: true,
		},
		{
			name: "malformed duration",
			setupEnv: func() {
				os.Setenv("AQDASH_SERVER_READ_TIMEOUT", "not-a-duration")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			if tt.setupEnv != nil {
				tt.setupEnv()
			}

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoad_ConfigFileWithEnvOverride(t *testing.T) {
	clearConfigEnv(t)

	tempDir := t.TempDir()
	configContent := `
server:
  port: 6060
  read_timeout: 20s
logging:
  level: error
datasets:
  base_url: https://file.example.gov
`
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(configContent), 0644))
	originalDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(tempDir))
	t.Cleanup(func() { os.Chdir(originalDir) })

	os.Setenv("AQDASH_SERVER_PORT", "7070")
	os.Setenv("AQDASH_LOGGING_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Environment overrides the file, file fills the gaps.
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "https://file.example.gov", cfg.Datasets.BaseURL)
}

func TestLoadFromFile(t *testing.T) {
	tests := []struct {
		name        string
		fileContent string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "valid YAML config",
			fileContent: `
server:
  port: 9000
  read_timeout: 25s
security:
  allowed_origins: ["http://test.com"]
logging:
  level: debug
datasets:
  load_timeout: 5m
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9000, cfg.Server.Port)
				assert.Equal(t, 25*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, []string{"http://test.com"}, cfg.Security.AllowedOrigins)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, 5*time.Minute, cfg.Datasets.LoadTimeout)
			},
		},
		{
			name:        "invalid YAML syntax",
			fileContent: "invalid: yaml: content: [unclosed",
			wantErr:     true,
		},
		{
			name: "partial config",
			fileContent: `
server:
  port: 8888
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8888, cfg.Server.Port)
				assert.Equal(t, time.Duration(0), cfg.Server.ReadTimeout)
				assert.Empty(t, cfg.Security.AllowedOrigins)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(configFile, []byte(tt.fileContent), 0644))

			cfg, err := loadFromFile(configFile)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}

	t.Run("non-existent file", func(t *testing.T) {
		_, err := loadFromFile("/non/existent/file.yaml")
		assert.Error(t, err)
	})
}

func TestMergeConfigs(t *testing.T) {
	fileConfig := Config{
		Server: ServerConfig{
			Port:         6060,
			ReadTimeout:  20 * time.Second,
			WriteTimeout: 25 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://file.example.com"},
		},
		Logging: LoggingConfig{
			Level: "error",
		},
		Datasets: DatasetsConfig{
			BaseURL:     "https://file.example.gov",
			LoadTimeout: 5 * time.Minute,
		},
	}

	envConfig := Config{
		Server: ServerConfig{
			Port:         7070, // overrides file
			WriteTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "debug",
		},
	}

	merged := mergeConfigs(fileConfig, envConfig)

	// Env takes precedence when set.
	assert.Equal(t, 7070, merged.Server.Port)
	assert.Equal(t, 30*time.Second, merged.Server.WriteTimeout)
	assert.Equal(t, "debug", merged.Logging.Level)

	// File fills in env zero values.
	assert.Equal(t, 20*time.Second, merged.Server.ReadTimeout)
	assert.Equal(t, []string{"http://file.example.com"}, merged.Security.AllowedOrigins)
	assert.Equal(t, "https://file.example.gov", merged.Datasets.BaseURL)
	assert.Equal(t, 5*time.Minute, merged.Datasets.LoadTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid configuration",
			config: *Default(),
		},
		{
			name: "invalid port - zero",
			config: Config{
				Server: ServerConfig{Port: 0},
			},
			wantErr: true,
			errMsg:  "invalid server port: 0",
		},
		{
			name: "invalid port - too high",
			config: Config{
				Server: ServerConfig{Port: 99999},
			},
			wantErr: true,
			errMsg:  "invalid server port: 99999",
		},
		{
			name: "invalid read timeout",
			config: Config{
				Server: ServerConfig{
					Port:        8080,
					ReadTimeout: -1 * time.Second,
				},
			},
			wantErr: true,
			errMsg:  "server read timeout must be positive",
		},
		{
			name: "empty allowed origins",
			config: Config{
				Server: ServerConfig{
					Port:         8080,
					ReadTimeout:  10 * time.Second,
					WriteTimeout: 10 * time.Second,
				},
			},
			wantErr: true,
			errMsg:  "at least one allowed origin must be specified",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.validate()
			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidate_AutoCorrections(t *testing.T) {
	cfg := Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
		},
		Logging: LoggingConfig{
			Format: "text",
			Output: "console",
		},
	}

	require.NoError(t, cfg.validate())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, "logs/app.log", cfg.Logging.FilePath)
	assert.Equal(t, 2*time.Minute, cfg.Datasets.LoadTimeout)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 1<<20, cfg.Server.MaxHeaderBytes)

	assert.Equal(t, []string{"http://localhost:8080"}, cfg.Security.AllowedOrigins)
	assert.True(t, cfg.Security.RateLimit.Enabled)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	assert.Equal(t, "data/datasets", cfg.Paths.DatasetsDir)
	assert.Equal(t, "data/exports", cfg.Paths.ExportsDir)

	assert.Equal(t, 2*time.Minute, cfg.Datasets.LoadTimeout)

	assert.Equal(t, 1024, cfg.WebSocket.ReadBufferSize)
	assert.Equal(t, 60*time.Second, cfg.WebSocket.PongWait)

	assert.NoError(t, cfg.validate())
}

func TestGetConfigFilePath(t *testing.T) {
	t.Run("no config file exists", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)
		os.Chdir(tempDir)

		assert.Empty(t, getConfigFilePath())
	})

	t.Run("config file in current directory", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)
		os.Chdir(tempDir)

		require.NoError(t, os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte("test"), 0644))
		assert.Equal(t, "config.yaml", getConfigFilePath())
	})

	t.Run("config file in configs directory", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)
		os.Chdir(tempDir)

		configsDir := filepath.Join(tempDir, "configs")
		require.NoError(t, os.MkdirAll(configsDir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(configsDir, "config.yaml"), []byte("test"), 0644))
		assert.Equal(t, "configs/config.yaml", getConfigFilePath())
	})
}

func TestConfigPathMethods(t *testing.T) {
	cfg := Default()

	t.Run("GetDataDir", func(t *testing.T) {
		dataDir := cfg.GetDataDir()
		assert.NotEmpty(t, dataDir)
		assert.True(t, filepath.IsAbs(dataDir))
	})

	t.Run("GetDatasetsDir", func(t *testing.T) {
		datasetsDir := cfg.GetDatasetsDir()
		assert.NotEmpty(t, datasetsDir)
		assert.True(t, filepath.IsAbs(datasetsDir))
		assert.Equal(t, "datasets", filepath.Base(datasetsDir))
	})

	t.Run("GetExportsDir", func(t *testing.T) {
		exportsDir := cfg.GetExportsDir()
		assert.NotEmpty(t, exportsDir)
		assert.True(t, filepath.IsAbs(exportsDir))
		assert.Equal(t, "exports", filepath.Base(exportsDir))
	})

	t.Run("GetLogsDir", func(t *testing.T) {
		logsDir := cfg.GetLogsDir()
		assert.NotEmpty(t, logsDir)
		assert.True(t, filepath.IsAbs(logsDir))
	})
}
