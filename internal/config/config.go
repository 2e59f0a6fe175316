// File: backend/internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort                 = "3001"
	DefaultSearchCount          = 20
	MaxSearchCount              = 1000
	DefaultGeneratorBaseURL     = "https://api.openai.com/v1"
	DefaultGeneratorModel       = "gpt-4o-mini"
	DefaultGeneratorTemperature = 0.8
	DefaultGeneratorMaxTokens   = 500
	DefaultGeneratorTimeoutSecs = 60
	RegistrarProductionURL      = "https://api.namecheap.com/xml.response"
	RegistrarSandboxURL         = "https://api.sandbox.namecheap.com/xml.response"
	RegistrarMaxBatchSize       = 50
	DefaultBatchDelayMs         = 500
	DefaultRegistrarTimeoutSecs = 30
	DefaultDNSQueryTimeoutSecs  = 3
	DefaultDNSMaxConcurrent     = 10
	DefaultCacheTTLSeconds      = 600
	DefaultCacheSweepSchedule   = "@every 10m"

	CacheBackendNone   = "none"
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"

	// Values shipped in the sample .env; treated as unset.
	GeneratorKeyPlaceholder      = "your_openai_api_key"
	RegistrarAPIUserPlaceholder  = "your_user"
	RegistrarAPIKeyPlaceholder   = "your_key"
	RegistrarUsernamePlaceholder = "your_name"
	RegistrarClientIPPlaceholder = "your_ip"
)

// Environment variable names.
const (
	EnvPort             = "PORT"
	EnvGeneratorKey     = "OPENAI_API_KEY"
	EnvGeneratorBaseURL = "OPENAI_BASE_URL"
	EnvGeneratorModel   = "OPENAI_MODEL"
	EnvRegistrarAPIUser = "NC_API_USER"
	EnvRegistrarAPIKey  = "NC_API_KEY"
	EnvRegistrarUser    = "NC_USERNAME"
	EnvRegistrarIP      = "CLIENT_IP"
	EnvRegistrarSandbox = "NC_USE_SANDBOX"
	EnvServerAPIKey     = "DOMAINFINDER_API_KEY"
	EnvCacheBackend     = "DOMAINFINDER_CACHE"
	EnvRedisURL         = "REDIS_URL"
	EnvDNSPrefilter     = "DOMAINFINDER_DNS_PREFILTER"
	EnvDNSResolvers     = "DOMAINFINDER_DNS_RESOLVERS"
)

// --- Struct Definitions ---

type ServerConfig struct {
	Port   string
	APIKey string // optional bearer token for /api routes; empty disables auth
}

type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// RegistrarConfig holds the Namecheap account values and batching knobs.
type RegistrarConfig struct {
	APIUser        string
	APIKey         string
	Username       string
	ClientIP       string
	UseSandbox     bool
	BaseURL        string
	BatchSize      int
	BatchDelay     time.Duration
	RequestTimeout time.Duration
}

type DNSProbeConfig struct {
	Enabled            bool
	Resolvers          []string
	UseSystemResolvers bool
	QueryTimeout       time.Duration
	MaxConcurrent      int
}

type CacheConfig struct {
	Backend       string
	RedisURL      string
	TTL           time.Duration
	SweepSchedule string
}

type SearchConfig struct {
	DefaultCount int
	MaxCount     int
}

// AppConfig is built once at startup and never mutated afterwards.
type AppConfig struct {
	Server         ServerConfig
	Generator      GeneratorConfig
	Registrar      RegistrarConfig
	DNSProbe       DNSProbeConfig
	Cache          CacheConfig
	Search         SearchConfig
	loadedFromPath string
}

func (ac *AppConfig) GetLoadedFromPath() string { return ac.loadedFromPath }

// --- File shape (JSON or YAML) ---

type ServerConfigFile struct {
	Port   string `json:"port" yaml:"port"`
	APIKey string `json:"apiKey" yaml:"apiKey"`
}

type GeneratorConfigFile struct {
	BaseURL        string  `json:"baseUrl" yaml:"baseUrl"`
	Model          string  `json:"model" yaml:"model"`
	Temperature    float64 `json:"temperature" yaml:"temperature"`
	MaxTokens      int     `json:"maxTokens" yaml:"maxTokens"`
	TimeoutSeconds int     `json:"timeoutSeconds" yaml:"timeoutSeconds"`
}

type RegistrarConfigFile struct {
	UseSandbox            bool   `json:"useSandbox" yaml:"useSandbox"`
	BaseURL               string `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	BatchSize             int    `json:"batchSize" yaml:"batchSize"`
	BatchDelayMs          int    `json:"batchDelayMs" yaml:"batchDelayMs"`
	RequestTimeoutSeconds int    `json:"requestTimeoutSeconds" yaml:"requestTimeoutSeconds"`
}

type DNSProbeConfigFile struct {
	Enabled             bool     `json:"enabled" yaml:"enabled"`
	Resolvers           []string `json:"resolvers" yaml:"resolvers"`
	UseSystemResolvers  bool     `json:"useSystemResolvers" yaml:"useSystemResolvers"`
	QueryTimeoutSeconds int      `json:"queryTimeoutSeconds" yaml:"queryTimeoutSeconds"`
	MaxConcurrent       int      `json:"maxConcurrent" yaml:"maxConcurrent"`
}

type CacheConfigFile struct {
	Backend       string `json:"backend" yaml:"backend"`
	TTLSeconds    int    `json:"ttlSeconds" yaml:"ttlSeconds"`
	SweepSchedule string `json:"sweepSchedule" yaml:"sweepSchedule"`
}

type SearchConfigFile struct {
	DefaultCount int `json:"defaultCount" yaml:"defaultCount"`
	MaxCount     int `json:"maxCount" yaml:"maxCount"`
}

// AppConfigFile is the optional tuning file. Credentials never live here.
type AppConfigFile struct {
	Server    ServerConfigFile    `json:"server" yaml:"server"`
	Generator GeneratorConfigFile `json:"generator" yaml:"generator"`
	Registrar RegistrarConfigFile `json:"registrar" yaml:"registrar"`
	DNSProbe  DNSProbeConfigFile  `json:"dnsProbe" yaml:"dnsProbe"`
	Cache     CacheConfigFile     `json:"cache" yaml:"cache"`
	Search    SearchConfigFile    `json:"search" yaml:"search"`
}

func DefaultAppConfigFile() AppConfigFile {
	return AppConfigFile{
		Server: ServerConfigFile{Port: DefaultPort},
		Generator: GeneratorConfigFile{
			BaseURL:        DefaultGeneratorBaseURL,
			Model:          DefaultGeneratorModel,
			Temperature:    DefaultGeneratorTemperature,
			MaxTokens:      DefaultGeneratorMaxTokens,
			TimeoutSeconds: DefaultGeneratorTimeoutSecs,
		},
		Registrar: RegistrarConfigFile{
			BatchSize:             RegistrarMaxBatchSize,
			BatchDelayMs:          DefaultBatchDelayMs,
			RequestTimeoutSeconds: DefaultRegistrarTimeoutSecs,
		},
		DNSProbe: DNSProbeConfigFile{
			Resolvers:           []string{"1.1.1.1:53", "8.8.8.8:53"},
			QueryTimeoutSeconds: DefaultDNSQueryTimeoutSecs,
			MaxConcurrent:       DefaultDNSMaxConcurrent,
		},
		Cache: CacheConfigFile{
			Backend:       CacheBackendNone,
			TTLSeconds:    DefaultCacheTTLSeconds,
			SweepSchedule: DefaultCacheSweepSchedule,
		},
		Search: SearchConfigFile{DefaultCount: DefaultSearchCount, MaxCount: MaxSearchCount},
	}
}

func DefaultConfig() *AppConfig { return ConvertFileToAppConfig(DefaultAppConfigFile()) }

// ConvertFileToAppConfig fills zero values with defaults and converts units.
func ConvertFileToAppConfig(f AppConfigFile) *AppConfig {
	d := DefaultAppConfigFile()
	cfg := &AppConfig{
		Server: ServerConfig{Port: f.Server.Port, APIKey: f.Server.APIKey},
		Generator: GeneratorConfig{
			BaseURL:     f.Generator.BaseURL,
			Model:       f.Generator.Model,
			Temperature: f.Generator.Temperature,
			MaxTokens:   f.Generator.MaxTokens,
			Timeout:     time.Duration(f.Generator.TimeoutSeconds) * time.Second,
		},
		Registrar: RegistrarConfig{
			UseSandbox:     f.Registrar.UseSandbox,
			BaseURL:        f.Registrar.BaseURL,
			BatchSize:      f.Registrar.BatchSize,
			BatchDelay:     time.Duration(f.Registrar.BatchDelayMs) * time.Millisecond,
			RequestTimeout: time.Duration(f.Registrar.RequestTimeoutSeconds) * time.Second,
		},
		DNSProbe: DNSProbeConfig{
			Enabled:            f.DNSProbe.Enabled,
			Resolvers:          f.DNSProbe.Resolvers,
			UseSystemResolvers: f.DNSProbe.UseSystemResolvers,
			QueryTimeout:       time.Duration(f.DNSProbe.QueryTimeoutSeconds) * time.Second,
			MaxConcurrent:      f.DNSProbe.MaxConcurrent,
		},
		Cache: CacheConfig{
			Backend:       strings.ToLower(strings.TrimSpace(f.Cache.Backend)),
			TTL:           time.Duration(f.Cache.TTLSeconds) * time.Second,
			SweepSchedule: f.Cache.SweepSchedule,
		},
		Search: SearchConfig{DefaultCount: f.Search.DefaultCount, MaxCount: f.Search.MaxCount},
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = d.Server.Port
	}
	if cfg.Generator.BaseURL == "" {
		cfg.Generator.BaseURL = d.Generator.BaseURL
	}
	cfg.Generator.BaseURL = strings.TrimRight(cfg.Generator.BaseURL, "/")
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = d.Generator.Model
	}
	if cfg.Generator.Temperature <= 0 {
		cfg.Generator.Temperature = d.Generator.Temperature
	}
	if cfg.Generator.MaxTokens <= 0 {
		cfg.Generator.MaxTokens = d.Generator.MaxTokens
	}
	if cfg.Generator.Timeout <= 0 {
		cfg.Generator.Timeout = time.Duration(d.Generator.TimeoutSeconds) * time.Second
	}
	if cfg.Registrar.BatchSize <= 0 || cfg.Registrar.BatchSize > RegistrarMaxBatchSize {
		if cfg.Registrar.BatchSize > RegistrarMaxBatchSize {
			log.Printf("Config: registrar batchSize %d exceeds the API ceiling, clamping to %d.", cfg.Registrar.BatchSize, RegistrarMaxBatchSize)
		}
		cfg.Registrar.BatchSize = RegistrarMaxBatchSize
	}
	if f.Registrar.BatchDelayMs < 0 {
		cfg.Registrar.BatchDelay = time.Duration(d.Registrar.BatchDelayMs) * time.Millisecond
	}
	if cfg.Registrar.RequestTimeout <= 0 {
		cfg.Registrar.RequestTimeout = time.Duration(d.Registrar.RequestTimeoutSeconds) * time.Second
	}
	if cfg.DNSProbe.QueryTimeout <= 0 {
		cfg.DNSProbe.QueryTimeout = time.Duration(d.DNSProbe.QueryTimeoutSeconds) * time.Second
	}
	if cfg.DNSProbe.MaxConcurrent <= 0 {
		cfg.DNSProbe.MaxConcurrent = d.DNSProbe.MaxConcurrent
	}
	if len(cfg.DNSProbe.Resolvers) == 0 && !cfg.DNSProbe.UseSystemResolvers {
		cfg.DNSProbe.Resolvers = d.DNSProbe.Resolvers
	}
	switch cfg.Cache.Backend {
	case CacheBackendNone, CacheBackendMemory, CacheBackendRedis:
	case "":
		cfg.Cache.Backend = CacheBackendNone
	default:
		log.Printf("Config Warning: unknown cache backend '%s', caching disabled.", cfg.Cache.Backend)
		cfg.Cache.Backend = CacheBackendNone
	}
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = time.Duration(d.Cache.TTLSeconds) * time.Second
	}
	if cfg.Cache.SweepSchedule == "" {
		cfg.Cache.SweepSchedule = d.Cache.SweepSchedule
	}
	if cfg.Search.MaxCount <= 0 || cfg.Search.MaxCount > MaxSearchCount {
		cfg.Search.MaxCount = MaxSearchCount
	}
	if cfg.Search.DefaultCount <= 0 || cfg.Search.DefaultCount > cfg.Search.MaxCount {
		cfg.Search.DefaultCount = DefaultSearchCount
	}
	return cfg
}

// Load reads the optional tuning file, the .env file next to it (or in the
// working directory) and then the process environment. A non-nil error with a
// non-nil config is a notice: the service can run on defaults.
func Load(mainConfigPath string) (*AppConfig, error) {
	if mainConfigPath == "" {
		mainConfigPath = "config.json"
		log.Printf("Config: Main config path empty, using default: %s", mainConfigPath)
	}

	loadDotEnv(filepath.Join(filepath.Dir(mainConfigPath), ".env"))

	fileCfg := DefaultAppConfigFile()
	var originalLoadError error

	data, err := os.ReadFile(mainConfigPath)
	if err != nil {
		originalLoadError = err
		if os.IsNotExist(err) {
			log.Printf("Config: Main config file '%s' not found. Using defaults.", mainConfigPath)
		} else {
			log.Printf("Config: Error reading main config '%s': %v. Using defaults.", mainConfigPath, err)
		}
	} else if errUnmarshal := unmarshalConfigFile(mainConfigPath, data, &fileCfg); errUnmarshal != nil {
		log.Printf("Config: Error unmarshalling main config '%s': %v. Using defaults for unparsed fields.", mainConfigPath, errUnmarshal)
		originalLoadError = errUnmarshal
	} else {
		log.Printf("Config: Loaded main config from '%s'", mainConfigPath)
	}

	appConfig := ConvertFileToAppConfig(fileCfg)
	appConfig.loadedFromPath = mainConfigPath
	if envErr := applyEnv(appConfig, os.LookupEnv); envErr != nil {
		return appConfig, envErr
	}
	return appConfig, originalLoadError
}

func loadDotEnv(path string) {
	if err := godotenv.Load(path); err == nil {
		log.Printf("Config: Loaded environment from '%s'", path)
		return
	}
	// Fall back to ./.env; a missing file is normal in container deployments.
	if err := godotenv.Load(); err == nil {
		log.Printf("Config: Loaded environment from '.env'")
	}
}

func unmarshalConfigFile(path string, data []byte, out *AppConfigFile) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, out)
	default:
		return json.Unmarshal(data, out)
	}
}

// applyEnv overlays environment values. lookup is os.LookupEnv outside tests.
func applyEnv(cfg *AppConfig, lookup func(string) (string, bool)) error {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	if v := get(EnvPort); v != "" {
		cfg.Server.Port = v
	}
	if v := get(EnvServerAPIKey); v != "" {
		cfg.Server.APIKey = v
	}

	cfg.Generator.APIKey = get(EnvGeneratorKey)
	if v := get(EnvGeneratorBaseURL); v != "" {
		cfg.Generator.BaseURL = strings.TrimRight(v, "/")
	}
	if v := get(EnvGeneratorModel); v != "" {
		cfg.Generator.Model = v
	}

	cfg.Registrar.APIUser = get(EnvRegistrarAPIUser)
	cfg.Registrar.APIKey = get(EnvRegistrarAPIKey)
	cfg.Registrar.Username = get(EnvRegistrarUser)
	cfg.Registrar.ClientIP = get(EnvRegistrarIP)
	if v := get(EnvRegistrarSandbox); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s must be a boolean, got %q", EnvRegistrarSandbox, v)
		}
		cfg.Registrar.UseSandbox = b
	}
	if cfg.Registrar.BaseURL == "" {
		if cfg.Registrar.UseSandbox {
			cfg.Registrar.BaseURL = RegistrarSandboxURL
		} else {
			cfg.Registrar.BaseURL = RegistrarProductionURL
		}
	}

	if v := get(EnvDNSPrefilter); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s must be a boolean, got %q", EnvDNSPrefilter, v)
		}
		cfg.DNSProbe.Enabled = b
	}
	if v := get(EnvDNSResolvers); v != "" {
		var resolvers []string
		for _, r := range strings.Split(v, ",") {
			if r = strings.TrimSpace(r); r != "" {
				resolvers = append(resolvers, r)
			}
		}
		cfg.DNSProbe.Resolvers = resolvers
	}

	if v := get(EnvRedisURL); v != "" {
		cfg.Cache.RedisURL = v
	}
	if v := strings.ToLower(get(EnvCacheBackend)); v != "" {
		switch v {
		case CacheBackendNone, CacheBackendMemory, CacheBackendRedis:
			cfg.Cache.Backend = v
		default:
			return fmt.Errorf("%s must be one of none, memory, redis; got %q", EnvCacheBackend, v)
		}
	}
	if cfg.Cache.Backend == CacheBackendRedis && cfg.Cache.RedisURL == "" {
		return fmt.Errorf("%s is required when the redis cache backend is selected", EnvRedisURL)
	}
	return nil
}

// GeneratorKeyIssue describes why the generator key is unusable, or "" when it is fine.
func (g GeneratorConfig) GeneratorKeyIssue() string {
	switch g.APIKey {
	case "":
		return "missing"
	case GeneratorKeyPlaceholder:
		return "placeholder"
	}
	return ""
}

// MissingCredentials lists the unset registrar environment variables.
func (r RegistrarConfig) MissingCredentials() []string {
	var missing []string
	for _, c := range []struct{ name, value string }{
		{EnvRegistrarAPIUser, r.APIUser},
		{EnvRegistrarAPIKey, r.APIKey},
		{EnvRegistrarUser, r.Username},
		{EnvRegistrarIP, r.ClientIP},
	} {
		if c.value == "" {
			missing = append(missing, c.name)
		}
	}
	return missing
}

// PlaceholderCredentials lists registrar variables still holding sample values.
func (r RegistrarConfig) PlaceholderCredentials() []string {
	var placeholders []string
	if r.APIUser == RegistrarAPIUserPlaceholder {
		placeholders = append(placeholders, EnvRegistrarAPIUser)
	}
	if r.APIKey == RegistrarAPIKeyPlaceholder {
		placeholders = append(placeholders, EnvRegistrarAPIKey)
	}
	if r.Username == RegistrarUsernamePlaceholder {
		placeholders = append(placeholders, EnvRegistrarUser)
	}
	if r.ClientIP == RegistrarClientIPPlaceholder {
		placeholders = append(placeholders, EnvRegistrarIP)
	}
	return placeholders
}

// HasCredentials reports whether all four registrar values are set.
func (r RegistrarConfig) HasCredentials() bool { return len(r.MissingCredentials()) == 0 }

// SearchWriteTimeout bounds the longest valid search: one generation call plus
// ceil(MaxCount/BatchSize) registrar calls, each followed by the batch delay,
// with a minute of slack for normalization and encoding.
func (ac *AppConfig) SearchWriteTimeout() time.Duration {
	batch := ac.Registrar.BatchSize
	if batch <= 0 || batch > RegistrarMaxBatchSize {
		batch = RegistrarMaxBatchSize
	}
	chunks := (ac.Search.MaxCount + batch - 1) / batch
	if chunks < 1 {
		chunks = 1
	}
	return ac.Generator.Timeout + time.Duration(chunks)*(ac.Registrar.RequestTimeout+ac.Registrar.BatchDelay) + time.Minute
}

// LogEnvironmentReport prints which secrets are present without their values.
func (ac *AppConfig) LogEnvironmentReport() {
	setOrNot := func(v string) string {
		if v == "" {
			return "NOT SET"
		}
		return "Set"
	}
	log.Printf("Environment check:")
	log.Printf("  %s: %s", EnvGeneratorKey, setOrNot(ac.Generator.APIKey))
	log.Printf("  %s: %s", EnvRegistrarAPIUser, setOrNot(ac.Registrar.APIUser))
	log.Printf("  %s: %s", EnvRegistrarAPIKey, setOrNot(ac.Registrar.APIKey))
	log.Printf("  %s: %s", EnvRegistrarUser, setOrNot(ac.Registrar.Username))
	log.Printf("  %s: %s", EnvRegistrarIP, setOrNot(ac.Registrar.ClientIP))
	if ac.Registrar.UseSandbox {
		log.Printf("  Registrar: sandbox (%s)", ac.Registrar.BaseURL)
	}
}
