package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultCORSOrigins = "http://localhost:5173"
	minJWTSecretLength = 32
)

type Config struct {
	HTTPPort       string
	DatabaseDSN    string // boşsa uzak veritabanı yapılandırılmamış sayılır
	JWTSecret      string
	CORSOrigins    string
	PhotoDir       string
	PhotoBaseURL   string
	MirrorPath     string
	RestaurantName string

	GeminiAPIKey string
	AdvisorModel string

	RemoteTimeout  time.Duration
	ImageTimeout   time.Duration
	AdvisorTimeout time.Duration
	MovementLimit  int

	LogLevel string
	LogFile  string
}

// Load: önce varsayılanlar, sonra HACCP_CONFIG dosyası (varsa), en son environment değişkenleri
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", defaultCORSOrigins)
	v.SetDefault("PHOTO_DIR", "./traceability-photos")
	v.SetDefault("PHOTO_BASE_URL", "/photos")
	v.SetDefault("MIRROR_PATH", "./mirror")
	v.SetDefault("RESTAURANT_NAME", "La Oncé")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("ADVISOR_MODEL", "gemini-2.5-flash")
	v.SetDefault("REMOTE_TIMEOUT", "8s")
	v.SetDefault("IMAGE_TIMEOUT", "15s")
	v.SetDefault("ADVISOR_TIMEOUT", "30s")
	v.SetDefault("MOVEMENT_LIMIT", 30)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.AutomaticEnv()

	if file := v.GetString("HACCP_CONFIG"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config dosyası okunamadı (%s): %w", file, err)
		}
	}

	cfg := &Config{
		HTTPPort:       v.GetString("HTTP_PORT"),
		DatabaseDSN:    strings.TrimSpace(v.GetString("DATABASE_DSN")),
		JWTSecret:      v.GetString("JWT_SECRET"),
		CORSOrigins:    v.GetString("CORS_ALLOWED_ORIGINS"),
		PhotoDir:       v.GetString("PHOTO_DIR"),
		PhotoBaseURL:   strings.TrimRight(v.GetString("PHOTO_BASE_URL"), "/"),
		MirrorPath:     v.GetString("MIRROR_PATH"),
		RestaurantName: v.GetString("RESTAURANT_NAME"),
		GeminiAPIKey:   v.GetString("GEMINI_API_KEY"),
		AdvisorModel:   v.GetString("ADVISOR_MODEL"),
		RemoteTimeout:  v.GetDuration("REMOTE_TIMEOUT"),
		ImageTimeout:   v.GetDuration("IMAGE_TIMEOUT"),
		AdvisorTimeout: v.GetDuration("ADVISOR_TIMEOUT"),
		MovementLimit:  v.GetInt("MOVEMENT_LIMIT"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFile:        v.GetString("LOG_FILE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate: sunucunun onsuz başlayamayacağı ayarları kontrol eder
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET tanımlanmamış, zorunludur")
	}
	if len(c.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET en az %d karakter olmalıdır", minJWTSecretLength)
	}
	if c.RemoteTimeout <= 0 || c.ImageTimeout <= 0 || c.AdvisorTimeout <= 0 {
		return errors.New("timeout değerleri pozitif olmalıdır")
	}
	if c.MovementLimit <= 0 {
		return errors.New("MOVEMENT_LIMIT pozitif olmalıdır")
	}
	return nil
}

// RemoteConfigured: uzak veritabanı hiç tanımlanmış mı?
func (c *Config) RemoteConfigured() bool {
	return c.DatabaseDSN != ""
}

// Warnings: production için düzeltilmesi gereken ayarlar (logger hazır olunca loglanır)
func (c *Config) Warnings() []string {
	var out []string
	if !c.RemoteConfigured() {
		out = append(out, "DATABASE_DSN tanımlanmamış, kayıtlar yalnızca yerel kopyada tutulacak")
	}
	if c.CORSOrigins == defaultCORSOrigins {
		out = append(out, "CORS_ALLOWED_ORIGINS varsayılan değer kullanılıyor, production için mutlaka kendi domain'ini tanımla")
	}
	if c.GeminiAPIKey == "" {
		out = append(out, "GEMINI_API_KEY tanımlanmamış, asistan yanıtları devre dışı")
	}
	return out
}
