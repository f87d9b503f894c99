package config

import (
	"fmt"
	"strings"
	"time"
)

type EnvVars struct {
	Port     string `env:"PORT" envDefault:"8080"`
	AppName  string `env:"APP_NAME" envDefault:"GreenTrace"`
	Env      string `env:"ENV" envDefault:"DEV"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	return listenAddr(e.Port)
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(e.Env)
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

func (e EnvVars) IsDev() bool {
	return e.GetEnv() == "DEV"
}

type API struct {
	BaseURL     string        `env:"API_BASE_URL" envDefault:"http://localhost:8081/api"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
}

var _ APIConfig = API{}

// GetAPIBaseURL returns the auth API root without a trailing slash
func (a API) GetAPIBaseURL() string {
	return strings.TrimRight(a.BaseURL, "/")
}

func (a API) GetHTTPTimeout() time.Duration {
	return a.HTTPTimeout
}

type MockAPIConfig interface {
	GetMockAPIPort() string
	GetJWTSecret() string
	GetTokenExpiry() time.Duration
}

type MockAPI struct {
	Port        string        `env:"MOCK_API_PORT" envDefault:"8081"`
	JWTSecret   string        `env:"JWT_SECRET" envDefault:"greentrace-dev-secret-change-me"`
	TokenExpiry time.Duration `env:"TOKEN_EXPIRY" envDefault:"24h"`
}

var _ MockAPIConfig = MockAPI{}

func (m MockAPI) GetMockAPIPort() string {
	return listenAddr(m.Port)
}

func (m MockAPI) GetJWTSecret() string {
	return m.JWTSecret
}

func (m MockAPI) GetTokenExpiry() time.Duration {
	return m.TokenExpiry
}

func listenAddr(port string) string {
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}
