package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// フロントのローカル開発用オリジン
var defaultCORSOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
}

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（7001）

	DatabaseURL      string // あれば最優先
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	JWTSecret      string        // JWT署名シークレット
	AccessTokenTTL time.Duration // アクセストークンの有効期限
	BcryptCost     int

	GoEnv       string   // dev/prod
	FEURL       string   // フロントURL（決済後の戻り先・CORS）
	CORSOrigins []string // 許可するオリジン

	RabbitMQURL   string // 空ならイベント送信しない
	WebhookSecret string // 空なら署名検証しない（devのみ）
}

// Loadは環境変数から設定を読む
func Load() (Config, error) {
	pgPort, err := atoiDefault("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	bcryptCost, err := atoiDefault("BCRYPT_COST", 12)
	if err != nil {
		return Config{}, err
	}
	ttl, err := durationDefault("ACCESS_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: getenv("PORT", "7001"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "food_ordering"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTokenTTL: ttl,
		BcryptCost:     bcryptCost,

		GoEnv: getenv("GO_ENV", "dev"),
		FEURL: strings.TrimRight(os.Getenv("FE_URL"), "/"),

		RabbitMQURL:   os.Getenv("RABBITMQ_URL"),
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.FEURL == "" {
		return Config{}, fmt.Errorf("FE_URL is required")
	}
	if cfg.GoEnv != "dev" && cfg.GoEnv != "prod" {
		return Config{}, fmt.Errorf("GO_ENV must be dev or prod")
	}
	// 本番は署名なしwebhookを受け付けない
	if cfg.GoEnv == "prod" && cfg.WebhookSecret == "" {
		return Config{}, fmt.Errorf("WEBHOOK_SECRET is required in prod")
	}

	cfg.CORSOrigins = corsOrigins(os.Getenv("CORS_ORIGINS"), cfg.FEURL)

	return cfg, nil
}

func (c Config) IsDev() bool {
	return c.GoEnv == "dev"
}

// echoに渡すアドレス（":7001"）
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// DSN はgorm用の接続文字列
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

// CORS_ORIGINSが無ければローカル + フロントURL
func corsOrigins(raw string, feURL string) []string {
	var origins []string
	if strings.TrimSpace(raw) == "" {
		origins = append(origins, defaultCORSOrigins...)
	} else {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, strings.TrimRight(o, "/"))
			}
		}
	}

	for _, o := range origins {
		if o == feURL {
			return origins
		}
	}
	return append(origins, feURL)
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}
