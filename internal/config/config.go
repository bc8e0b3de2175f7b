package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	ServerAddr string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// JWTSecret and AccessTokenTTL have no defaults; the process refuses to
	// start without them.
	JWTSecret      string
	AccessTokenTTL time.Duration

	BcryptCost        int
	AuthRecheckStatus bool

	RedisAddr string

	// MinIO/S3 configuration for data source documents
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	S3Region       string

	PresignExpiry time.Duration
}

func Load() (*Config, error) {
	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		return nil, fmt.Errorf("SECRET_KEY is required")
	}

	ttlMinutesStr := os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES")
	if ttlMinutesStr == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES is required")
	}
	ttlMinutes, err := strconv.Atoi(ttlMinutesStr)
	if err != nil || ttlMinutes <= 0 {
		return nil, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be a positive integer, got %q", ttlMinutesStr)
	}

	bcryptCost, _ := strconv.Atoi(getEnvOrDefault("BCRYPT_COST", "12"))
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = 12
	}

	recheckStatus, _ := strconv.ParseBool(getEnvOrDefault("AUTH_RECHECK_STATUS", "true"))
	minioUseSSL, _ := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", "false"))

	presignMinutes, _ := strconv.Atoi(getEnvOrDefault("PRESIGN_EXPIRE_MINUTES", "15"))
	if presignMinutes <= 0 {
		presignMinutes = 15
	}

	return &Config{
		ServerAddr:        getEnvOrDefault("SERVER_ADDR", ":8080"),
		DBHost:            getEnvOrDefault("DB_HOST", "localhost"),
		DBPort:            getEnvOrDefault("DB_PORT", "5432"),
		DBUser:            getEnvOrDefault("DB_USER", "chatforge"),
		DBPassword:        getEnvOrDefault("DB_PASSWORD", "chatforge_dev_password"),
		DBName:            getEnvOrDefault("DB_NAME", "chatforge"),
		JWTSecret:         secret,
		AccessTokenTTL:    time.Duration(ttlMinutes) * time.Minute,
		BcryptCost:        bcryptCost,
		AuthRecheckStatus: recheckStatus,
		RedisAddr:         getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		MinioEndpoint:     getEnvOrDefault("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:    getEnvOrDefault("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey:    getEnvOrDefault("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:       getEnvOrDefault("MINIO_BUCKET", "datasource-documents"),
		MinioUseSSL:       minioUseSSL,
		S3Region:          getEnvOrDefault("S3_REGION", "us-east-1"),
		PresignExpiry:     time.Duration(presignMinutes) * time.Minute,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
