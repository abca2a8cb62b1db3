package configs

import (
	"log"
	"os"
	"strconv"
	"time"

	"feed-client/internal/shared/db"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort        string
	APIBaseURL     string
	APIToken       string
	JWTSecret      string
	GatewayTimeout time.Duration
	FeedPageSize   int

	MirrorBackend string // file | redis | postgres
	MirrorFile    string
	MirrorPrefix  string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	DB db.Config

	KafkaBrokers string
	KafkaTopic   string
	KafkaAcks    string
	KafkaAsync   bool

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3UseSSL    bool
	S3URLTTL    time.Duration
}

// LoadConfig reads the environment, after loading .env files when present.
func LoadConfig(envFiles ...string) *Config {
	if err := godotenv.Load(envFiles...); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env: %v", err)
	}
	return &Config{
		AppPort:        getEnv("APP_PORT", ":8090"),
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:5000"),
		APIToken:       getEnv("API_TOKEN", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		GatewayTimeout: getDuration("GATEWAY_TIMEOUT", 10*time.Second),
		FeedPageSize:   getInt("FEED_PAGE_SIZE", 5),

		MirrorBackend: getEnv("MIRROR_BACKEND", "file"),
		MirrorFile:    getEnv("MIRROR_FILE", "data/mirror.json"),
		MirrorPrefix:  getEnv("MIRROR_PREFIX", "feed:"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),

		DB: db.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "feed_client"),
		},

		KafkaBrokers: getEnv("KAFKA_BOOTSTRAP_SERVERS", ""),
		KafkaTopic:   getEnv("KAFKA_TOPIC_INTERACTIONS", "interactions.reconciled"),
		KafkaAcks:    getEnv("KAFKA_REQUIRED_ACKS", "one"),
		KafkaAsync:   getBool("KAFKA_ASYNC", false),

		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3Bucket:    getEnv("S3_BUCKET", "media"),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3UseSSL:    getBool("S3_USE_SSL", false),
		S3URLTTL:    getDuration("S3_URL_TTL", 15*time.Minute),
	}
}

func (c *Config) RedisAddr() string { return c.RedisHost + ":" + c.RedisPort }

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
