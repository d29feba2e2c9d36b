package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	AdminToken        string `mapstructure:"ADMIN_TOKEN"`
	PublicBaseURL     string `mapstructure:"PUBLIC_BASE_URL"`

	// Office and business rules.
	OfficeName      string `mapstructure:"OFFICE_NAME"`
	OfficeTimezone  string `mapstructure:"OFFICE_TIMEZONE"`
	OfficeOpenDays  string `mapstructure:"OFFICE_OPEN_DAYS"`
	OfficeOpenTime  string `mapstructure:"OFFICE_OPEN_TIME"`
	OfficeCloseTime string `mapstructure:"OFFICE_CLOSE_TIME"`

	// Appointments.
	AppointmentDurationMinutes int `mapstructure:"APPOINTMENT_DURATION_MINUTES"`
	AppointmentMinDaysAhead    int `mapstructure:"APPOINTMENT_MIN_DAYS_AHEAD"`
	SearchHorizonDays          int `mapstructure:"APPOINTMENT_SEARCH_HORIZON_DAYS"`

	// Transfers.
	OperatorExtensions        string `mapstructure:"OPERATOR_EXTENSIONS"`
	OutOfHoursMobile          string `mapstructure:"OUT_OF_HOURS_MOBILE"`
	OutOfHoursTransferNumber  string `mapstructure:"OUT_OF_HOURS_TRANSFER_NUMBER"`
	EmergencyNumber           string `mapstructure:"AI_EMERGENCY_NUMBER"`
	TransferDialTimeoutSecond int    `mapstructure:"TRANSFER_DIAL_TIMEOUT_SECONDS"`

	// Conversation.
	SessionIdleTimeout   time.Duration `mapstructure:"SESSION_IDLE_TIMEOUT"`
	ExternalCallTimeout  time.Duration `mapstructure:"EXTERNAL_CALL_TIMEOUT"`
	MaxReasoningFailures int           `mapstructure:"MAX_REASONING_FAILURES"`
	MaxEmptyInputRetries int           `mapstructure:"MAX_EMPTY_INPUT_RETRIES"`
	HistoryWindow        int           `mapstructure:"HISTORY_WINDOW"`
	GoodbyeKeywords      string        `mapstructure:"GOODBYE_KEYWORDS"`
	FurtherHelpMarkers   string        `mapstructure:"FURTHER_HELP_MARKERS"`

	// Gemini.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`

	// Google Calendar and Speech.
	GoogleCalendarMainID     string `mapstructure:"GOOGLE_CALENDAR_MAIN_ID"`
	GoogleServiceAccountFile string `mapstructure:"GOOGLE_CREDENTIALS_PATH"`
	SpeechRecordingFallback  bool   `mapstructure:"SPEECH_RECORDING_FALLBACK"`

	// Redis configuration.
	RedisAddr        string        `mapstructure:"REDIS_ADDR"`
	RedisPassword    string        `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB     int           `mapstructure:"REDIS_CACHE_DB"`
	CalendarCacheTTL time.Duration `mapstructure:"CALENDAR_CACHE_TTL"`

	// Twilio.
	TwilioAccountSID        string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken         string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioValidateSignature bool   `mapstructure:"TWILIO_VALIDATE_SIGNATURE"`

	// Events and tracing.
	KafkaBrokers      string  `mapstructure:"KAFKA_BROKERS"`
	OtelEnabled       bool    `mapstructure:"OTEL_ENABLED"`
	OtelEndpoint      string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelSamplingRatio float64 `mapstructure:"OTEL_SAMPLING_RATIO"`
}

var AppConfig Config

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	v.SetDefault("ADMIN_TOKEN", "")
	v.SetDefault("PUBLIC_BASE_URL", "")

	v.SetDefault("OFFICE_NAME", "Centro Medico Gargano")
	v.SetDefault("OFFICE_TIMEZONE", "Europe/Rome")
	v.SetDefault("OFFICE_OPEN_DAYS", "MON,TUE,WED,THU,FRI")
	v.SetDefault("OFFICE_OPEN_TIME", "09:00")
	v.SetDefault("OFFICE_CLOSE_TIME", "19:00")

	v.SetDefault("APPOINTMENT_DURATION_MINUTES", 60)
	v.SetDefault("APPOINTMENT_MIN_DAYS_AHEAD", 7)
	v.SetDefault("APPOINTMENT_SEARCH_HORIZON_DAYS", 30)

	v.SetDefault("OPERATOR_EXTENSIONS", DefaultExtension+",**612")
	v.SetDefault("OUT_OF_HOURS_MOBILE", "")
	v.SetDefault("OUT_OF_HOURS_TRANSFER_NUMBER", "")
	v.SetDefault("AI_EMERGENCY_NUMBER", "118")
	v.SetDefault("TRANSFER_DIAL_TIMEOUT_SECONDS", 30)

	v.SetDefault("SESSION_IDLE_TIMEOUT", "10m")
	v.SetDefault("EXTERNAL_CALL_TIMEOUT", "4s")
	v.SetDefault("MAX_REASONING_FAILURES", 3)
	v.SetDefault("MAX_EMPTY_INPUT_RETRIES", 2)
	v.SetDefault("HISTORY_WINDOW", 10)
	v.SetDefault("GOODBYE_KEYWORDS", "arrivederci,grazie,basta,fine,niente altro")
	v.SetDefault("FURTHER_HELP_MARKERS", "altro,posso aiutarla")

	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "models/gemini-1.5-flash")

	v.SetDefault("GOOGLE_CALENDAR_MAIN_ID", "")
	v.SetDefault("GOOGLE_CREDENTIALS_PATH", "")
	v.SetDefault("SPEECH_RECORDING_FALLBACK", false)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("CALENDAR_CACHE_TTL", "2m")

	v.SetDefault("TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TWILIO_AUTH_TOKEN", "")
	v.SetDefault("TWILIO_VALIDATE_SIGNATURE", true)

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("OTEL_SAMPLING_RATIO", 1.0)
}

func LoadConfig() {
	// A local .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

// Defaults returns a Config populated only with default values.
func Defaults() Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: defaults do not decode: %v", err))
	}
	return cfg
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// SplitList splits a comma separated setting, dropping blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
