package config

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{"APP_PORT": "8080", "JWT_SECRET": "s"}))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "US", cfg.PhoneDefaultRegion)
	assert.Equal(t, StoreMySQL, cfg.StoreDriver)
	assert.True(t, cfg.DBMigrate)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, DispatchLog, cfg.DispatchDriver)
	assert.True(t, cfg.DispatchConsumer)
	assert.Equal(t, "http://localhost:3000", cfg.FrontendURL)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.False(t, cfg.SMTP.Enabled())
	assert.False(t, cfg.Twilio.Enabled())

	dsn, err := mysql.ParseDSN(cfg.MySQLDSN())
	require.NoError(t, err)
	assert.Equal(t, "root", dsn.User)
	assert.Equal(t, "localhost:3306", dsn.Addr)
	assert.Equal(t, "authflow", dsn.DBName)
	assert.True(t, dsn.ParseTime)
	assert.Equal(t, time.UTC, dsn.Loc)
}

func TestMySQLDSNKeepsSpecialCharacters(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{
		"APP_PORT":   "8080",
		"JWT_SECRET": "s",
		"DB_USER":    "app",
		"DB_PASS":    "p@ss:w/rd",
		"DB_HOST":    "db.internal",
		"DB_PORT":    "3307",
	}))
	require.NoError(t, err)

	dsn, err := mysql.ParseDSN(cfg.MySQLDSN())
	require.NoError(t, err)
	assert.Equal(t, "app", dsn.User)
	assert.Equal(t, "p@ss:w/rd", dsn.Passwd)
	assert.Equal(t, "db.internal:3307", dsn.Addr)
	assert.Equal(t, "authflow", dsn.DBName)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{
		"APP_PORT":             "9000",
		"JWT_SECRET":           "s",
		"STORE_DRIVER":         "Redis",
		"REDIS_DB":             "3",
		"REDIS_TLS":            "yes",
		"DISPATCH_DRIVER":      "amqp",
		"DISPATCH_CONSUMER":    "false",
		"SMTP_HOST":            "smtp.example.com",
		"TWILIO_ACCOUNT_SID":   "AC1",
		"TWILIO_AUTH_TOKEN":    "tok",
		"TWILIO_FROM":          "+15550000000",
		"PHONE_DEFAULT_REGION": "gb",
	}))
	require.NoError(t, err)
	assert.Equal(t, StoreRedis, cfg.StoreDriver)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.True(t, cfg.Redis.TLS)
	assert.Equal(t, DispatchAMQP, cfg.DispatchDriver)
	assert.False(t, cfg.DispatchConsumer)
	assert.True(t, cfg.SMTP.Enabled())
	assert.True(t, cfg.Twilio.Enabled())
	assert.Equal(t, "GB", cfg.PhoneDefaultRegion)
}

func TestFromEnvCollectsErrors(t *testing.T) {
	_, err := FromEnv(lookupFrom(map[string]string{
		"JWT_SECRET":      "",
		"BCRYPT_COST":     "ten",
		"DB_MIGRATE":      "maybe",
		"STORE_DRIVER":    "postgres",
		"DISPATCH_DRIVER": "kafka",
	}))
	require.Error(t, err)
	for _, want := range []string{"APP_PORT", "JWT_SECRET", "BCRYPT_COST", "DB_MIGRATE", "STORE_DRIVER", "DISPATCH_DRIVER"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := NewRedisClient(context.Background(), RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer rdb.Close()
	require.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())

	addr := mr.Addr()
	mr.Close()
	_, err = NewRedisClient(context.Background(), RedisConfig{Addr: addr})
	assert.Error(t, err)
}
