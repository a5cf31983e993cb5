package config

import "os"

type Config struct {
	Port            string
	Env             string
	JWTSecret       string
	PostgresConnStr string
	MongoURI        string
	MongoDBName     string
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		PostgresConnStr: getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:        getEnv("MONGO_URI", ""),
		MongoDBName:     getEnv("MONGO_DB_NAME", "storytelling"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
