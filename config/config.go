package config

import (
	"log"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreDriverXlsx     = "xlsx"
	StoreDriverPostgres = "postgres"
)

type Config struct {
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	Timezone          string `env:"TIMEZONE" envDefault:"Asia/Seoul"`
	Store             Store
	Postgres          Postgres
	Telegram          Telegram
	Redis             Redis
	API               API
	Cache             Cache
	Jobs              Jobs
	GoogleDrive       GoogleDrive
	Report            Report
	SessionExpiration time.Duration `env:"SESSION_EXPIRATION" envDefault:"10m"`
}

type Store struct {
	Driver   string `env:"STORE_DRIVER" envDefault:"xlsx"`
	XlsxPath string `env:"STORE_XLSX_PATH" envDefault:"portfolio.xlsx"`
}

type Postgres struct {
	Host            string `env:"PG_HOST" envDefault:"localhost"`
	Port            int    `env:"PG_PORT" envDefault:"5432"`
	DbName          string `env:"PG_DB_NAME" envDefault:"portfolio"`
	Password        string `env:"PG_PASSWORD" envDefault:""`
	User            string `env:"PG_USER" envDefault:"portfolio"`
	MaxOpenConns    int    `env:"PG_MAX_OPEN_CONNS" envDefault:"5"`
	ConnMaxLifetime int    `env:"PG_CONN_MAX_LIFETIME" envDefault:"300"`
	MaxIdleConns    int    `env:"PG_MAX_IDLE_CONNS" envDefault:"2"`
	ConnMaxIdleTime int    `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"60"`
	MigrationDir    string `env:"PG_MIGRATION_DIR" envDefault:"migrations"`
	SslMode         string `env:"PG_SSL_MODE" envDefault:"disable"`
}

type Telegram struct {
	Token            string        `env:"TELEGRAM_TOKEN" envDefault:""`
	UpdTimeout       time.Duration `env:"TELEGRAM_UPD_TIMEOUT" envDefault:"10s"`
	FileLimitInBytes int           `env:"TELEGRAM_FILE_LIMIT_IN_BYTES" envDefault:"50000000"`
	// пустой список - бот отвечает всем
	AllowedChatIDs []int64 `env:"TELEGRAM_ALLOWED_CHAT_IDS" envSeparator:"," envDefault:""`
}

type Redis struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type API struct {
	Debug            bool          `env:"API_DEBUG" envDefault:"false"`
	Timeout          time.Duration `env:"API_TIMEOUT" envDefault:"10s"`
	FetchTimeout     time.Duration `env:"API_FETCH_TIMEOUT" envDefault:"15s"`
	FetchConcurrency int           `env:"API_FETCH_CONCURRENCY" envDefault:"4"`
	PriceApi         PriceApi
}

type PriceApi struct {
	Url string `env:"PRICE_API_URL" envDefault:"https://query1.finance.yahoo.com"`
	// суффикс биржи для чисто цифровых тикеров (KRX)
	NumericTickerSuffix string `env:"PRICE_API_NUMERIC_TICKER_SUFFIX" envDefault:".KS"`
}

type Cache struct {
	PricesExpiration time.Duration `env:"CACHE_PRICES_EXPIRATION" envDefault:"15m"`
}

type Jobs struct {
	WarmPriceCacheInterval time.Duration `env:"WARM_PRICE_CACHE_JOB_INTERVAL" envDefault:"30m"`
	// empty crontab disables automatic daily recording
	DailyRecordCrontab     string        `env:"DAILY_RECORD_JOB_CRONTAB" envDefault:""`
	CleanupBackupsInterval time.Duration `env:"CLEANUP_BACKUPS_JOB_INTERVAL" envDefault:"24h"`
}

type GoogleDrive struct {
	CredentialsFile string        `env:"GOOGLE_DRIVE_CREDENTIALS_FILE" envDefault:""`
	FileTTL         time.Duration `env:"GOOGLE_DRIVE_FILE_TTL" envDefault:"720h"`
}

func (g GoogleDrive) Enabled() bool {
	return g.CredentialsFile != ""
}

type Report struct {
	Currency        string  `env:"REPORT_CURRENCY" envDefault:"KRW"`
	CurrencySymbol  string  `env:"REPORT_CURRENCY_SYMBOL" envDefault:"₩"`
	WeightTolerance float64 `env:"TARGET_WEIGHT_TOLERANCE" envDefault:"0.0001"`
	HistoryRows     int     `env:"REPORT_HISTORY_ROWS" envDefault:"10"`
}

func MustLoad() *Config {
	_ = godotenv.Load(".env")

	cfg := &Config{}

	opts := env.Options{RequiredIfNoDef: true}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		log.Fatalf("parse config error: %s", err)
	}

	return cfg
}

// Location returns the configured timezone, UTC if it can't be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
