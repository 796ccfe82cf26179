package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config содержит настройки приложения
type Config struct {
	DBHost      string        // Хост базы данных
	DBPort      string        // Порт базы данных
	DBUser      string        // Пользователь базы данных
	DBPassword  string        // Пароль базы данных
	DBName      string        // Имя базы данных
	JWTSecret   string        // Секрет для JWT
	TokenExpiry time.Duration // Время жизни токена

	RedisAddr     string // Адрес Redis (пусто - кэш отключен)
	RedisPassword string
	RedisDB       int

	GracePeriodDays int    // Льготный период после срока выкупа, дней
	PGPKeyPath      string
	DocumentHMACKey string // Ключ HMAC для поиска по номеру документа
}

// LoadConfig загружает конфигурацию из .env файла
func LoadConfig() (*Config, error) {
	// Загружаем переменные окружения из .env файла
	if err := godotenv.Load(); err != nil {
		logrus.Warn("Файл .env не найден")
	}

	// Парсим время жизни токена
	expiry, err := time.ParseDuration(os.Getenv("TOKEN_EXPIRY"))
	if err != nil {
		expiry = 24 * time.Hour // По умолчанию 24 часа
	}

	redisDB, err := strconv.Atoi(os.Getenv("REDIS_DB"))
	if err != nil {
		redisDB = 0
	}

	graceDays, err := strconv.Atoi(os.Getenv("GRACE_PERIOD_DAYS"))
	if err != nil || graceDays <= 0 {
		graceDays = 7 // Стандартный льготный период
	}

	// Создаем объект конфигурации
	config := &Config{
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPassword:      getEnv("DB_PASSWORD", "postgres"),
		DBName:          getEnv("DB_NAME", "pawnshop"),
		JWTSecret:       getEnv("JWT_SECRET", "default-secret-key"),
		TokenExpiry:     expiry,
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         redisDB,
		GracePeriodDays: graceDays,
		PGPKeyPath:      getEnv("PGP_KEY_PATH", "config/pgp-key.asc"),
		DocumentHMACKey: getEnv("DOCUMENT_HMAC_KEY", "default-hmac-key"),
	}

	return config, nil
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
