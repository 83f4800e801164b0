package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"pharmadelivery/internal/core/domain/model/kernel"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendRedis    = "redis"

	MessengerWhatsApp = "whatsapp"
	MessengerLog      = "log"
)

type Config struct {
	HTTPPort string `yaml:"http_port"`
	LogLevel string `yaml:"log_level"`

	StoreBackend string `yaml:"store_backend"`
	DBHost       string `yaml:"db_host"`
	DBPort       string `yaml:"db_port"`
	DBUser       string `yaml:"db_user"`
	DBPassword   string `yaml:"db_password"`
	DBName       string `yaml:"db_name"`
	DBSslMode    string `yaml:"db_sslmode"`

	ConversationBackend string `yaml:"conversation_backend"`
	DedupeBackend       string `yaml:"dedupe_backend"`
	MongoURI            string `yaml:"mongo_uri"`
	MongoDatabase       string `yaml:"mongo_database"`
	RedisURL            string `yaml:"redis_url"`

	Messenger             string `yaml:"messenger"`
	WhatsAppBaseURL       string `yaml:"whatsapp_base_url"`
	WhatsAppPhoneNumberID string `yaml:"whatsapp_phone_number_id"`
	WhatsAppAccessToken   string `yaml:"whatsapp_access_token"`
	WhatsAppVerifyToken   string `yaml:"whatsapp_verify_token"`

	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	OpenAIModel   string `yaml:"openai_model"`

	AdminJWTSecret   string   `yaml:"admin_jwt_secret"`
	AdminCORSOrigins []string `yaml:"admin_cors_origins"`
	SupportPhone     string   `yaml:"support_phone"`
	SeedFile         string   `yaml:"seed_file"`

	DayFee   int64    `yaml:"day_fee"`
	NightFee int64    `yaml:"night_fee"`
	TimeZone string   `yaml:"time_zone"`
	Geofence Geofence `yaml:"geofence"`

	OfferWindow        time.Duration `yaml:"courier_offer_window"`
	CandidateLimit     int           `yaml:"courier_candidate_limit"`
	ReviewWindow       time.Duration `yaml:"prescription_review_window"`
	ConversationIdle   time.Duration `yaml:"conversation_idle"`
	DedupeTTL          time.Duration `yaml:"dedupe_ttl"`
	DispatchTimeout    time.Duration `yaml:"dispatch_timeout"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
	RateLimitBurst     int           `yaml:"rate_limit_burst"`

	CourierSweepEvery      time.Duration `yaml:"courier_sweep_every"`
	PrescriptionSweepEvery time.Duration `yaml:"prescription_sweep_every"`
	EvictionEvery          time.Duration `yaml:"eviction_every"`
	DedupePruneEvery       time.Duration `yaml:"dedupe_prune_every"`
}

// Geofence is the rectangular service area, in degrees.
type Geofence struct {
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLng float64 `yaml:"min_lng"`
	MaxLng float64 `yaml:"max_lng"`
}

// DefaultConfig serves Abidjan with an in-memory store and a logging messenger.
func DefaultConfig() Config {
	return Config{
		HTTPPort:            "8080",
		LogLevel:            "info",
		StoreBackend:        BackendMemory,
		DBPort:              "5432",
		DBSslMode:           "disable",
		ConversationBackend: BackendMemory,
		DedupeBackend:       BackendMemory,
		MongoDatabase:       "pharmadelivery",
		Messenger:           MessengerLog,
		DayFee:              1000,
		NightFee:            1500,
		TimeZone:            "Africa/Abidjan",
		Geofence:            Geofence{MinLat: 5.20, MaxLat: 5.50, MinLng: -4.20, MaxLng: -3.80},

		OfferWindow:        5 * time.Minute,
		CandidateLimit:     10,
		ReviewWindow:       30 * time.Minute,
		ConversationIdle:   24 * time.Hour,
		DedupeTTL:          24 * time.Hour,
		DispatchTimeout:    30 * time.Second,
		RateLimitPerMinute: 30,
		RateLimitBurst:     10,

		CourierSweepEvery:      time.Minute,
		PrescriptionSweepEvery: time.Minute,
		EvictionEvery:          10 * time.Minute,
		DedupePruneEvery:       10 * time.Minute,
	}
}

// LoadConfig layers defaults, the YAML file named by CONFIG_FILE, the .env
// file (ENV_FILE, default ".env") and the process environment, then
// validates the result. Only CONFIG_FILE must exist when set.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadYAMLFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

type lookupFunc func(key string) (string, bool)

// applyEnv overrides cfg with every variable that is set. Malformed numbers
// and durations are reported together.
func applyEnv(cfg *Config, lookup lookupFunc) error {
	e := envReader{lookup: lookup}

	e.str("HTTP_PORT", &cfg.HTTPPort)
	e.str("LOG_LEVEL", &cfg.LogLevel)

	e.str("STORE_BACKEND", &cfg.StoreBackend)
	e.str("DB_HOST", &cfg.DBHost)
	e.str("DB_PORT", &cfg.DBPort)
	e.str("DB_USER", &cfg.DBUser)
	e.str("DB_PASSWORD", &cfg.DBPassword)
	e.str("DB_NAME", &cfg.DBName)
	e.str("DB_SSLMODE", &cfg.DBSslMode)

	e.str("CONVERSATION_BACKEND", &cfg.ConversationBackend)
	e.str("DEDUPE_BACKEND", &cfg.DedupeBackend)
	e.str("MONGO_URI", &cfg.MongoURI)
	e.str("MONGO_DATABASE", &cfg.MongoDatabase)
	e.str("REDIS_URL", &cfg.RedisURL)

	e.str("MESSENGER", &cfg.Messenger)
	e.str("WHATSAPP_BASE_URL", &cfg.WhatsAppBaseURL)
	e.str("WHATSAPP_PHONE_NUMBER_ID", &cfg.WhatsAppPhoneNumberID)
	e.str("WHATSAPP_ACCESS_TOKEN", &cfg.WhatsAppAccessToken)
	e.str("WHATSAPP_VERIFY_TOKEN", &cfg.WhatsAppVerifyToken)

	e.str("OPENAI_API_KEY", &cfg.OpenAIAPIKey)
	e.str("OPENAI_BASE_URL", &cfg.OpenAIBaseURL)
	e.str("OPENAI_MODEL", &cfg.OpenAIModel)

	e.str("ADMIN_JWT_SECRET", &cfg.AdminJWTSecret)
	e.list("ADMIN_CORS_ORIGINS", &cfg.AdminCORSOrigins)
	e.str("SUPPORT_PHONE", &cfg.SupportPhone)
	e.str("SEED_FILE", &cfg.SeedFile)

	e.int64("DAY_FEE", &cfg.DayFee)
	e.int64("NIGHT_FEE", &cfg.NightFee)
	e.str("TIME_ZONE", &cfg.TimeZone)
	e.float("GEOFENCE_MIN_LAT", &cfg.Geofence.MinLat)
	e.float("GEOFENCE_MAX_LAT", &cfg.Geofence.MaxLat)
	e.float("GEOFENCE_MIN_LNG", &cfg.Geofence.MinLng)
	e.float("GEOFENCE_MAX_LNG", &cfg.Geofence.MaxLng)

	e.duration("COURIER_OFFER_WINDOW", &cfg.OfferWindow)
	e.int("COURIER_CANDIDATE_LIMIT", &cfg.CandidateLimit)
	e.duration("PRESCRIPTION_REVIEW_WINDOW", &cfg.ReviewWindow)
	e.duration("CONVERSATION_IDLE", &cfg.ConversationIdle)
	e.duration("DEDUPE_TTL", &cfg.DedupeTTL)
	e.duration("DISPATCH_TIMEOUT", &cfg.DispatchTimeout)
	e.int("RATE_LIMIT_PER_MINUTE", &cfg.RateLimitPerMinute)
	e.int("RATE_LIMIT_BURST", &cfg.RateLimitBurst)

	e.duration("COURIER_SWEEP_EVERY", &cfg.CourierSweepEvery)
	e.duration("PRESCRIPTION_SWEEP_EVERY", &cfg.PrescriptionSweepEvery)
	e.duration("EVICTION_EVERY", &cfg.EvictionEvery)
	e.duration("DEDUPE_PRUNE_EVERY", &cfg.DedupePruneEvery)

	return e.err
}

type envReader struct {
	lookup lookupFunc
	err    error
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.lookup(key); ok {
		*dst = v
	}
}

// list splits a comma separated value and drops empty entries.
func (e *envReader) list(key string, dst *[]string) {
	if v, ok := e.lookup(key); ok {
		out := make([]string, 0)
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		*dst = out
	}
}

func (e *envReader) int(key string, dst *int) {
	if v, ok := e.lookup(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.err = errors.Join(e.err, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
}

func (e *envReader) int64(key string, dst *int64) {
	if v, ok := e.lookup(key); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			e.err = errors.Join(e.err, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
}

func (e *envReader) float(key string, dst *float64) {
	if v, ok := e.lookup(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.err = errors.Join(e.err, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = f
	}
}

func (e *envReader) duration(key string, dst *time.Duration) {
	if v, ok := e.lookup(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.err = errors.Join(e.err, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}
}

// Validate reports every problem at once. Missing credentials of a selected
// backend are errors.
func (c Config) Validate() error {
	var errs []error
	required := func(value, name string) {
		if value == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}
	positive := func(d time.Duration, name string) {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be > 0, got %s", name, d))
		}
	}

	required(c.HTTPPort, "HTTP_PORT")

	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		required(c.DBHost, "DB_HOST")
		required(c.DBUser, "DB_USER")
		required(c.DBName, "DB_NAME")
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendMemory, BackendPostgres, c.StoreBackend))
	}

	switch c.ConversationBackend {
	case BackendMemory:
	case BackendMongo:
		required(c.MongoURI, "MONGO_URI")
		required(c.MongoDatabase, "MONGO_DATABASE")
	case BackendRedis:
		required(c.RedisURL, "REDIS_URL")
	default:
		errs = append(errs, fmt.Errorf("CONVERSATION_BACKEND must be %q, %q or %q, got %q",
			BackendMemory, BackendMongo, BackendRedis, c.ConversationBackend))
	}

	switch c.DedupeBackend {
	case BackendMemory:
	case BackendRedis:
		required(c.RedisURL, "REDIS_URL")
	default:
		errs = append(errs, fmt.Errorf("DEDUPE_BACKEND must be %q or %q, got %q", BackendMemory, BackendRedis, c.DedupeBackend))
	}

	switch c.Messenger {
	case MessengerLog:
	case MessengerWhatsApp:
		required(c.WhatsAppPhoneNumberID, "WHATSAPP_PHONE_NUMBER_ID")
		required(c.WhatsAppAccessToken, "WHATSAPP_ACCESS_TOKEN")
		required(c.WhatsAppVerifyToken, "WHATSAPP_VERIFY_TOKEN")
	default:
		errs = append(errs, fmt.Errorf("MESSENGER must be %q or %q, got %q", MessengerWhatsApp, MessengerLog, c.Messenger))
	}

	if c.DayFee < 0 || c.NightFee < 0 {
		errs = append(errs, fmt.Errorf("fees must be >= 0, got %d/%d", c.DayFee, c.NightFee))
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("TIME_ZONE: %w", err))
	}
	if _, err := c.Geofence.toKernel(); err != nil {
		errs = append(errs, fmt.Errorf("geofence: %w", err))
	}
	if c.CandidateLimit <= 0 {
		errs = append(errs, fmt.Errorf("COURIER_CANDIDATE_LIMIT must be > 0, got %d", c.CandidateLimit))
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be >= 0, got %d", c.RateLimitPerMinute))
	}

	positive(c.OfferWindow, "COURIER_OFFER_WINDOW")
	positive(c.ReviewWindow, "PRESCRIPTION_REVIEW_WINDOW")
	positive(c.ConversationIdle, "CONVERSATION_IDLE")
	positive(c.DedupeTTL, "DEDUPE_TTL")
	positive(c.DispatchTimeout, "DISPATCH_TIMEOUT")
	for name, every := range map[string]time.Duration{
		"COURIER_SWEEP_EVERY":      c.CourierSweepEvery,
		"PRESCRIPTION_SWEEP_EVERY": c.PrescriptionSweepEvery,
		"EVICTION_EVERY":           c.EvictionEvery,
		"DEDUPE_PRUNE_EVERY":       c.DedupePruneEvery,
	} {
		if every < time.Second {
			errs = append(errs, fmt.Errorf("%s must be at least 1s, got %s", name, every))
		}
	}

	return errors.Join(errs...)
}

// DSN is the libpq connection string for the postgres store.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

func (g Geofence) toKernel() (kernel.Geofence, error) {
	return kernel.NewGeofence(g.MinLat, g.MaxLat, g.MinLng, g.MaxLng)
}
