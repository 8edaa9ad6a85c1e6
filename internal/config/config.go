package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration required by the gateway process.
// Values come from env, optionally seeded from a .env file in the working directory.
// No handler should read raw environment variables.
type Config struct {
	App      AppConfig
	Carrier  CarrierConfig
	WhatsApp WhatsAppConfig
	AI       AIConfig
	Auth     AuthConfig
	USSD     USSDConfig
	Sentry   SentryConfig
}

type AppConfig struct {
	Env  string
	Port int

	// PublicBaseURL is the externally reachable origin (scheme://host) used for
	// voice callback URLs. Empty means derive it from each request.
	PublicBaseURL string
}

type CarrierConfig struct {
	Username string
	APIKey   string

	// FromShortcode is the default SMS sender; replies to 2-way SMS go out from here.
	FromShortcode string
	// VoiceNumber is the default caller id for outbound calls.
	VoiceNumber string

	Timeout      time.Duration
	VoiceRESTURL string
}

type WhatsAppConfig struct {
	APIURL string
	Sender string

	// WebhookSecret is read but not verified against; inbound verification is not implemented.
	WebhookSecret string
}

type AIConfig struct {
	Provider string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	TokenTTL    time.Duration
}

// USSDConfig controls whether the public USSD menu may send real airtime.
type USSDConfig struct {
	AirtimeEnabled bool
	// MaxAirtime caps a single USSD purchase.
	MaxAirtime decimal.Decimal
}

type SentryConfig struct {
	DSN string
}

const (
	defaultPort           = 3000
	defaultUsername       = "sandbox"
	defaultCarrierTimeout = 15 * time.Second
	defaultAITimeout      = 10 * time.Second
	defaultTokenTTL       = 90 * 24 * time.Hour
	defaultVoiceRESTURL   = "https://voice.africastalking.com/call"
)

var defaultUSSDMaxAirtime = decimal.NewFromInt(100)

func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := optionalInt("APP_PORT", "PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.PublicBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/")

	c.Carrier.Username = strings.TrimSpace(os.Getenv("AT_USERNAME"))
	c.Carrier.APIKey = strings.TrimSpace(os.Getenv("AT_API_KEY"))
	c.Carrier.FromShortcode = strings.TrimSpace(os.Getenv("AT_FROM_SHORTCODE"))
	c.Carrier.VoiceNumber = strings.TrimSpace(os.Getenv("AT_VOICE_NUMBER"))
	c.Carrier.VoiceRESTURL = strings.TrimSpace(os.Getenv("AT_VOICE_REST_URL"))
	{
		d, err := optionalDuration("AT_TIMEOUT")
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.Carrier.Timeout = d
	}

	c.WhatsApp.APIURL = strings.TrimSpace(os.Getenv("AT_WHATSAPP_API_URL"))
	c.WhatsApp.Sender = strings.TrimSpace(os.Getenv("AT_WHATSAPP_SENDER"))
	c.WhatsApp.WebhookSecret = os.Getenv("AT_WHATSAPP_WEBHOOK_SECRET")

	c.AI.Provider = strings.ToLower(strings.TrimSpace(os.Getenv("AI_PROVIDER")))
	c.AI.APIKey = strings.TrimSpace(os.Getenv("AI_API_KEY"))
	if c.AI.APIKey == "" {
		c.AI.APIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	c.AI.Model = strings.TrimSpace(os.Getenv("AI_MODEL"))
	{
		d, err := optionalDuration("AI_TIMEOUT")
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.AI.Timeout = d
	}

	c.Auth.JWTSecret = os.Getenv("API_JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("API_JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("API_JWT_AUDIENCE"))
	{
		d, err := optionalDuration("API_JWT_TTL")
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.Auth.TokenTTL = d
	}

	{
		b, err := optionalBool("USSD_AIRTIME_ENABLED")
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.USSD.AirtimeEnabled = b
	}
	if v := strings.TrimSpace(os.Getenv("USSD_AIRTIME_MAX")); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			parseErrs = append(parseErrs, fmt.Errorf("USSD_AIRTIME_MAX must be a number, got %q", v))
		}
		c.USSD.MaxAirtime = d
	}

	c.Sentry.DSN = strings.TrimSpace(os.Getenv("SENTRY_DSN"))

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the config and fills defaults in place.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		c.App.Env = "local"
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port == 0 {
		c.App.Port = defaultPort
	}
	if c.App.Port < 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.PublicBaseURL != "" {
		u, err := url.Parse(c.App.PublicBaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
			errs = append(errs, fmt.Errorf("PUBLIC_BASE_URL must be an absolute http(s) URL, got %q", c.App.PublicBaseURL))
		}
	}

	if c.Carrier.Username == "" {
		c.Carrier.Username = defaultUsername
	}
	if c.Carrier.APIKey == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("AT_API_KEY is required in production"))
		} else {
			slog.Warn("AT_API_KEY missing; carrier calls will fail until it is set")
		}
	}
	if c.IsProduction() && c.Carrier.Username == defaultUsername {
		errs = append(errs, errors.New("AT_USERNAME must not be sandbox in production"))
	}
	if c.Carrier.Timeout <= 0 {
		c.Carrier.Timeout = defaultCarrierTimeout
	}
	if c.Carrier.VoiceRESTURL == "" {
		c.Carrier.VoiceRESTURL = defaultVoiceRESTURL
	}

	switch c.AI.Provider {
	case "":
		c.AI.Provider = "gemini"
	case "gemini", "openai", "anthropic", "none":
	default:
		errs = append(errs, fmt.Errorf("AI_PROVIDER must be one of gemini, openai, anthropic, none, got %q", c.AI.Provider))
	}
	if c.AI.Timeout <= 0 {
		c.AI.Timeout = defaultAITimeout
	}

	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = defaultTokenTTL
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 16 && c.IsProduction() {
		errs = append(errs, errors.New("API_JWT_SECRET must be at least 16 characters in production"))
	}

	if c.USSD.MaxAirtime.IsZero() {
		c.USSD.MaxAirtime = defaultUSSDMaxAirtime
	}
	if c.USSD.MaxAirtime.IsNegative() {
		errs = append(errs, fmt.Errorf("USSD_AIRTIME_MAX must be positive, got %s", c.USSD.MaxAirtime))
	}
	if c.USSD.AirtimeEnabled && c.Carrier.APIKey == "" {
		slog.Warn("USSD_AIRTIME_ENABLED set without AT_API_KEY; USSD purchases stay confirm-only")
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) IsSandbox() bool {
	return c.Carrier.Username == defaultUsername
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

// USSDAirtimeEnabled reports whether USSD purchases should send real airtime:
// an explicit opt-in plus carrier credentials.
func (c Config) USSDAirtimeEnabled() bool {
	return c.USSD.AirtimeEnabled && c.Carrier.APIKey != ""
}

// MaskedAPIKey returns a loggable preview of the carrier key.
func (c Config) MaskedAPIKey() string {
	k := c.Carrier.APIKey
	if k == "" {
		return "not-set"
	}
	if len(k) <= 8 {
		return "***"
	}
	return k[:4] + "..." + k[len(k)-2:]
}

// optionalInt reads the first non-empty of keys as an int; 0 when all are empty.
func optionalInt(keys ...string) (int, error) {
	for _, key := range keys {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
		}
		return n, nil
	}
	return 0, nil
}

func optionalBool(key string) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false, got %q", key, v)
	}
	return b, nil
}

func optionalDuration(key string) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 15s, got %q", key, v)
	}
	return d, nil
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
