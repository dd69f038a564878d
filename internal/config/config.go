package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
)

type Config struct {
	AppPort string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	// Ledger sidecar and payment processor endpoints.
	LedgerBaseURL  string
	PaymentBaseURL string
	PaymentAPIKey  string

	IdempTTLSecs    int
	SettingsTTLSecs int
	SettleQueueSize int
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func Load() *Config {
	return &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "rentfi"),
		MySQLUser: getenv("MYSQL_USER", "rentfi"),
		MySQLPass: getenv("MYSQL_PASS", "rentfi"),

		RedisAddr: getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:   getenvInt("REDIS_DB", 0),

		LedgerBaseURL:  getenv("LEDGER_BASE_URL", "http://ledger:8545"),
		PaymentBaseURL: getenv("PAYMENT_BASE_URL", "https://api.payments.local"),
		PaymentAPIKey:  getenv("PAYMENT_API_KEY", ""),

		IdempTTLSecs:    getenvInt("IDEMPOTENCY_TTL_SECONDS", 300),
		SettingsTTLSecs: getenvInt("SETTINGS_TTL_SECONDS", 30),
		SettleQueueSize: getenvInt("SETTLE_QUEUE_SIZE", 256),
	}
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.LedgerBaseURL == "" {
		return errors.New("missing LEDGER_BASE_URL")
	}
	if c.SettleQueueSize <= 0 {
		return errors.New("SETTLE_QUEUE_SIZE must be positive")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
