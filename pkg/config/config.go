package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración del terminal (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App          AppConfig
	HTTP         HTTPConfig
	Remote       RemoteConfig
	Session      SessionConfig
	Connectivity ConnectivityConfig
	Order        OrderConfig
	Store        StoreConfig
	DB           DBConfig
	Redis        RedisConfig
	Telemetry    TelemetryConfig
	Simulator    SimulatorConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env        string // development, staging, production
	Name       string
	TerminalID string // identifica la fila de sesión del terminal en el almacén compartido
	LogLevel   string
}

// HTTPConfig configuración de la API local del terminal.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RemoteConfig backend de autenticación, cuentas, badges y salud.
type RemoteConfig struct {
	BaseURL      string
	LoginPath    string
	AccountPath  string
	BadgePath    string
	HealthPath   string
	Timeout      time.Duration
	ProbeTimeout time.Duration
}

// SessionConfig sesión del cajero y PIN offline.
type SessionConfig struct {
	TTL            time.Duration
	AllowedRoles   []string
	MaxPINAttempts int
	BcryptCost     int
}

// ConnectivityConfig sondeo periódico del backend.
type ConnectivityConfig struct {
	ProbeInterval time.Duration
}

// OrderConfig envío de pedidos y conector por defecto.
type OrderConfig struct {
	DefaultCustomerEmail string
	ConnectorID          string
	ConnectorName        string
	ConnectorURL         string // vacío = no se siembra conector
	ConnectorTimeout     time.Duration
}

// StoreConfig selecciona el almacén de credenciales: postgres | redis | memory.
type StoreConfig struct {
	Driver string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// RedisConfig almacén alternativo de credenciales.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// TelemetryConfig exportador OTLP; Endpoint vacío desactiva las trazas.
type TelemetryConfig struct {
	Endpoint string
	Insecure bool
}

// SimulatorConfig backend de demostración (cmd/backend-sim).
type SimulatorConfig struct {
	Port      int
	JWTSecret string
	Issuer    string
	Seed      bool
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, REMOTE_BASE_URL, SESSION_TTL_HOURS, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:        getString(v, "APP_ENV", "development"),
			Name:       getString(v, "APP_NAME", "pos-connector"),
			TerminalID: getString(v, "TERMINAL_ID", "default"),
			LogLevel:   getString(v, "LOG_LEVEL", "info"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "127.0.0.1"),
			Port: getInt(v, "HTTP_PORT", 8069),
		},
		Remote: RemoteConfig{
			BaseURL:      getString(v, "REMOTE_BASE_URL", "http://localhost:8080"),
			LoginPath:    getString(v, "REMOTE_LOGIN_PATH", "/api/auth/login"),
			AccountPath:  getString(v, "REMOTE_ACCOUNT_PATH", "/api/auth/me"),
			BadgePath:    getString(v, "REMOTE_BADGE_PATH", "/api/badges"),
			HealthPath:   getString(v, "REMOTE_HEALTH_PATH", "/api/health"),
			Timeout:      time.Duration(getInt(v, "REMOTE_TIMEOUT_SECONDS", 15)) * time.Second,
			ProbeTimeout: time.Duration(getInt(v, "REMOTE_PROBE_TIMEOUT_MS", 2000)) * time.Millisecond,
		},
		Session: SessionConfig{
			TTL:            time.Duration(getInt(v, "SESSION_TTL_HOURS", 8)) * time.Hour,
			AllowedRoles:   getList(v, "SESSION_ALLOWED_ROLES", []string{"ADMIN", "SUPER_ADMIN", "CAISSIER"}),
			MaxPINAttempts: getInt(v, "SESSION_PIN_ATTEMPTS", 3),
			BcryptCost:     getInt(v, "SESSION_BCRYPT_COST", 10),
		},
		Connectivity: ConnectivityConfig{
			ProbeInterval: time.Duration(getInt(v, "CONNECTIVITY_INTERVAL_SECONDS", 10)) * time.Second,
		},
		Order: OrderConfig{
			DefaultCustomerEmail: getString(v, "ORDER_DEFAULT_CUSTOMER_EMAIL", "unknown@pos.com"),
			ConnectorID:          getString(v, "ORDER_CONNECTOR_ID", "default"),
			ConnectorName:        getString(v, "ORDER_CONNECTOR_NAME", "Payments API"),
			ConnectorURL:         getString(v, "ORDER_CONNECTOR_URL", "http://localhost:8080/api/payments"),
			ConnectorTimeout:     time.Duration(getInt(v, "ORDER_CONNECTOR_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getString(v, "STORE_DRIVER", "postgres")),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "pos_connector"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 4),
		},
		Redis: RedisConfig{
			Addr:      getString(v, "REDIS_ADDR", "localhost:6379"),
			Password:  getString(v, "REDIS_PASSWORD", ""),
			DB:        getInt(v, "REDIS_DB", 0),
			KeyPrefix: getString(v, "REDIS_KEY_PREFIX", "pos"),
		},
		Telemetry: TelemetryConfig{
			Endpoint: getString(v, "OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure: getBool(v, "OTEL_EXPORTER_OTLP_INSECURE", false),
		},
		Simulator: SimulatorConfig{
			Port:      getInt(v, "SIM_PORT", 8080),
			JWTSecret: getString(v, "SIM_JWT_SECRET", ""),
			Issuer:    getString(v, "SIM_JWT_ISSUER", "backend-sim"),
			Seed:      getBool(v, "SIM_SEED", true),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "postgres", "redis", "memory":
	default:
		return fmt.Errorf("config: STORE_DRIVER inválido %q (postgres | redis | memory)", c.Store.Driver)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL_HOURS debe ser positivo")
	}
	if c.Session.MaxPINAttempts <= 0 {
		return fmt.Errorf("config: SESSION_PIN_ATTEMPTS debe ser positivo")
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return b
	}
	return def
}

// getList lee una lista separada por comas.
func getList(v *viper.Viper, key string, def []string) []string {
	if !v.IsSet(key) {
		return def
	}
	var out []string
	for _, s := range strings.Split(v.GetString(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
