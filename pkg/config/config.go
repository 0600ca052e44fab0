package config

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// RateLimitBucketConfig configures one named token bucket (see
// internal/ratelimit). Zero values disable the bucket.
type RateLimitBucketConfig struct {
	RequestsPerMinute int `yaml:"requestsPerMinute"`
	BurstSize         int `yaml:"burstSize"`
}

// RateLimitConfig groups the buckets the HTTP surface rate-limits.
type RateLimitConfig struct {
	Producer RateLimitBucketConfig `yaml:"producer"`
	Worker   RateLimitBucketConfig `yaml:"worker"`
	Admin    RateLimitBucketConfig `yaml:"admin"`
}

// Config is loaded once at process startup and never re-read: the worker's
// cache directory, zkey path, and witness/prover binary paths are
// process-wide and must not drift mid-run.
type Config struct {
	Port       int    `yaml:"port"`
	Env        string `yaml:"env"`
	LogLevel   string `yaml:"logLevel"`
	LogFormat  string `yaml:"logFormat"`
	Timezone   string `yaml:"timezone"`

	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	WorkerJwksURL           string `yaml:"workerJwksUrl"`
	WorkerAudience          string `yaml:"workerAudience"`
	WorkerIssuer            string `yaml:"workerIssuer"`
	AllowedClockSkewSeconds int    `yaml:"allowedClockSkewSeconds"`

	PollIntervalMs      int `yaml:"pollIntervalMs"`
	ProofTimeoutMs      int `yaml:"proofTimeoutMs"`
	PingIntervalMs      int `yaml:"pingIntervalMs"`
	PongTimeoutMs       int `yaml:"pongTimeoutMs"`
	ConnectionTimeoutMs int `yaml:"connectionTimeoutMs"`
	ReconnectBaseMs     int `yaml:"reconnectBaseMs"`

	ProofMode       string `yaml:"proofMode"` // "wasm" or "native"
	ProofServerWsURL string `yaml:"proofServerWsUrl"`
	CacheDir        string `yaml:"cacheDir"`
	ZkeyPath        string `yaml:"zkeyPath"`
	WitnessBinPath  string `yaml:"witnessBinPath"`
	ProverBinPath   string `yaml:"proverBinPath"`

	// ChannelWsURL and WorkerAuthToken are consumed only by cmd/worker: the
	// address of this (or a peer) server's C5 channel endpoint and the
	// bearer token it authenticates with, as opposed to ProofServerWsURL
	// which is the wasm-mode *proving* backend the worker itself calls out to.
	ChannelWsURL   string `yaml:"channelWsUrl"`
	WorkerAuthToken string `yaml:"workerAuthToken"`

	RateLimitRPS   int             `yaml:"rateLimitRps"`
	RateLimitBurst int             `yaml:"rateLimitBurst"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`

	ProducerAuthProvider string          `yaml:"producerAuthProvider"` // "jwks" or "static"
	ProducerAuthConfig   json.RawMessage `yaml:"producerAuthConfig"`
	WorkerAuthProvider   string          `yaml:"workerAuthProvider"` // "jwks" or "static"
	WorkerAuthConfig     json.RawMessage `yaml:"workerAuthConfig"`

	TracingEnabled      bool    `yaml:"tracingEnabled"`
	ServiceName         string  `yaml:"serviceName"`
	OTLPEndpoint        string  `yaml:"otlpEndpoint"`
	OTLPInsecure        bool    `yaml:"otlpInsecure"`
	TracingSampleRatio  float64 `yaml:"tracingSampleRatio"`
}

// LoadConfig reads filePath as YAML, applies environment overrides, fills
// in defaults, and returns the result. Order: file, then env, then defaults
// for anything still zero-valued.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	applyEnvOverrides(&c)
	applyDefaults(&c)

	log.Printf("ProofBridge Config: {Port:%d Redis:%s ProofMode:%s CacheDir:%s PollInterval:%dms ProofTimeout:%dms}\n",
		c.Port, c.RedisAddr, c.ProofMode, c.CacheDir, c.PollIntervalMs, c.ProofTimeoutMs)
	return &c, nil
}

// LoadConfigOptional behaves like LoadConfig but tolerates a missing file,
// returning pure env+defaults (useful for containerized deployments that
// configure entirely through the environment).
func LoadConfigOptional(filePath string) (*Config, error) {
	if filePath == "" {
		var c Config
		applyEnvOverrides(&c)
		applyDefaults(&c)
		return &c, nil
	}
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		var c Config
		applyEnvOverrides(&c)
		applyDefaults(&c)
		return &c, nil
	}
	return LoadConfig(filePath)
}

func applyEnvOverrides(c *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Port = n
		}
	}
	if v := os.Getenv("ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("WORKER_JWKS_URL"); v != "" {
		c.WorkerJwksURL = v
	}
	if v := os.Getenv("WORKER_AUDIENCE"); v != "" {
		c.WorkerAudience = v
	}
	if v := os.Getenv("WORKER_ISSUER"); v != "" {
		c.WorkerIssuer = v
	}
	if v := os.Getenv("ALLOWED_CLOCK_SKEW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.AllowedClockSkewSeconds = n
		}
	}
	if v := os.Getenv("POLL_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PollIntervalMs = n
		}
	}
	if v := os.Getenv("PROOF_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ProofTimeoutMs = n
		}
	}
	if v := os.Getenv("PING_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PingIntervalMs = n
		}
	}
	if v := os.Getenv("PONG_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PongTimeoutMs = n
		}
	}
	if v := os.Getenv("CONNECTION_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ConnectionTimeoutMs = n
		}
	}
	if v := os.Getenv("RECONNECT_BASE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ReconnectBaseMs = n
		}
	}
	if v := os.Getenv("PROOF_MODE"); v != "" {
		c.ProofMode = v
	}
	if v := os.Getenv("PROOF_SERVER_WS_URL"); v != "" {
		c.ProofServerWsURL = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		c.CacheDir = v
	}
	if v := os.Getenv("ZKEY_PATH"); v != "" {
		c.ZkeyPath = v
	}
	if v := os.Getenv("WITNESS_BIN_PATH"); v != "" {
		c.WitnessBinPath = v
	}
	if v := os.Getenv("PROVER_BIN_PATH"); v != "" {
		c.ProverBinPath = v
	}
	if v := os.Getenv("CHANNEL_WS_URL"); v != "" {
		c.ChannelWsURL = v
	}
	if v := os.Getenv("WORKER_AUTH_TOKEN"); v != "" {
		c.WorkerAuthToken = v
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateLimitRPS = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateLimitBurst = n
		}
	}
	if v := os.Getenv("PRODUCER_AUTH_PROVIDER"); v != "" {
		c.ProducerAuthProvider = v
	}
	if v := os.Getenv("PRODUCER_AUTH_CONFIG"); v != "" {
		c.ProducerAuthConfig = json.RawMessage(v)
	}
	if v := os.Getenv("WORKER_AUTH_PROVIDER"); v != "" {
		c.WorkerAuthProvider = v
	}
	if v := os.Getenv("WORKER_AUTH_CONFIG"); v != "" {
		c.WorkerAuthConfig = json.RawMessage(v)
	}
	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.TracingEnabled = b
		}
	}
	if v := os.Getenv("SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("OTLP_ENDPOINT"); v != "" {
		c.OTLPEndpoint = v
	}
	if v := os.Getenv("OTLP_INSECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.OTLPInsecure = b
		}
	}
	if v := os.Getenv("TRACING_SAMPLE_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.TracingSampleRatio = f
		}
	}
}

func applyDefaults(c *Config) {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	if c.WorkerAudience == "" {
		c.WorkerAudience = "proofbridge-worker"
	}
	if c.AllowedClockSkewSeconds <= 0 {
		c.AllowedClockSkewSeconds = 60
	}
	// Both defaults are pinned independently per the source's two divergent
	// revisions (600_000ms timeout, 1_000ms poll); neither silently wins.
	if c.PollIntervalMs <= 0 {
		c.PollIntervalMs = 1_000
	}
	if c.ProofTimeoutMs <= 0 {
		c.ProofTimeoutMs = 600_000
	}
	if c.PingIntervalMs <= 0 {
		c.PingIntervalMs = 30_000
	}
	if c.PongTimeoutMs <= 0 {
		c.PongTimeoutMs = 5_000
	}
	if c.ConnectionTimeoutMs <= 0 {
		c.ConnectionTimeoutMs = 35_000
	}
	if c.ReconnectBaseMs <= 0 {
		c.ReconnectBaseMs = 5_000
	}
	if c.ProofMode == "" {
		c.ProofMode = "native"
	}
	if c.CacheDir == "" {
		c.CacheDir = "/tmp/proofbridge-cache"
	}
	if c.ChannelWsURL == "" {
		c.ChannelWsURL = fmt.Sprintf("ws://localhost:%d/v1/proof/channel", c.Port)
	}
	if c.RateLimitRPS <= 0 {
		c.RateLimitRPS = 20
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 40
	}
	if c.RateLimit.Producer.RequestsPerMinute <= 0 {
		c.RateLimit.Producer = RateLimitBucketConfig{RequestsPerMinute: 60, BurstSize: 20}
	}
	if c.RateLimit.Worker.RequestsPerMinute <= 0 {
		c.RateLimit.Worker = RateLimitBucketConfig{RequestsPerMinute: 120, BurstSize: 40}
	}
	if c.RateLimit.Admin.RequestsPerMinute <= 0 {
		c.RateLimit.Admin = RateLimitBucketConfig{RequestsPerMinute: 30, BurstSize: 10}
	}
	if c.ProducerAuthProvider == "" {
		c.ProducerAuthProvider = "jwks"
	}
	if c.WorkerAuthProvider == "" {
		c.WorkerAuthProvider = "jwks"
	}
	if c.ServiceName == "" {
		c.ServiceName = "proofbridge"
	}
	if c.TracingSampleRatio <= 0 {
		c.TracingSampleRatio = 1.0
	}
}

// Validate rejects configurations that would be unsafe or non-functional
// outside of local development.
func (c *Config) Validate() error {
	var errs []string
	env := strings.ToLower(strings.TrimSpace(c.Env))
	dev := env == "dev"

	if c.WorkerJwksURL == "" {
		if !dev {
			errs = append(errs, "workerJwksUrl is required in non-dev")
		}
	} else {
		u, err := url.Parse(c.WorkerJwksURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, "workerJwksUrl must be a valid http(s) URL")
		}
	}
	if c.WorkerIssuer == "" && !dev {
		errs = append(errs, "workerIssuer is required in non-dev")
	}
	if c.ProofMode != "native" && c.ProofMode != "wasm" {
		errs = append(errs, "proofMode must be \"native\" or \"wasm\"")
	}
	if c.ProofMode == "native" && (c.WitnessBinPath == "" || c.ProverBinPath == "") {
		errs = append(errs, "witnessBinPath and proverBinPath are required when proofMode is native")
	}
	if c.ProofMode == "wasm" && c.ProofServerWsURL == "" && !dev {
		errs = append(errs, "proofServerWsUrl is required when proofMode is wasm in non-dev")
	}
	if c.ZkeyPath == "" && !dev {
		errs = append(errs, "zkeyPath is required in non-dev")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
