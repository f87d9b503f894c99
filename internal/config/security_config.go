package config

import (
	"time"

	"golang.org/x/time/rate"
)

type SessionConfig interface {
	GetSessionStore() string
	GetDataFolder() string
	GetRedisURL() string
	GetRedisKeyPrefix() string
	GetVerifyTimeout() time.Duration
	GetVerifyRetries() uint64
}

type Session struct {
	Store          string        `env:"SESSION_STORE" envDefault:"file"`
	DataFolder     string        `env:"DATA_FOLDER" envDefault:"./data"`
	RedisURL       string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisKeyPrefix string        `env:"REDIS_KEY_PREFIX" envDefault:"greentrace:session:"`
	VerifyTimeout  time.Duration `env:"VERIFY_TIMEOUT" envDefault:"5s"`
	VerifyRetries  uint64        `env:"VERIFY_RETRIES" envDefault:"2"`
}

var _ SessionConfig = Session{}

// GetSessionStore returns the store backend: file, memory or redis
func (s Session) GetSessionStore() string {
	return s.Store
}

func (s Session) GetDataFolder() string {
	return s.DataFolder
}

func (s Session) GetRedisURL() string {
	return s.RedisURL
}

func (s Session) GetRedisKeyPrefix() string {
	return s.RedisKeyPrefix
}

// GetVerifyTimeout bounds the startup token verification, retries included
func (s Session) GetVerifyTimeout() time.Duration {
	return s.VerifyTimeout
}

func (s Session) GetVerifyRetries() uint64 {
	return s.VerifyRetries
}

type SecurityConfig interface {
	GetSubmitRate() rate.Limit
	GetSubmitBurst() int
}

type Security struct {
	SubmitRate  float64 `env:"SUBMIT_RATE" envDefault:"1"`
	SubmitBurst int     `env:"SUBMIT_BURST" envDefault:"5"`
}

var _ SecurityConfig = Security{}

// GetSubmitRate is the sustained form submissions per second allowed per client
func (s Security) GetSubmitRate() rate.Limit {
	return rate.Limit(s.SubmitRate)
}

func (s Security) GetSubmitBurst() int {
	return s.SubmitBurst
}
