package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env         string `mapstructure:"ENV"`
	Port        string `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	OTPPepper         string        `mapstructure:"OTP_PEPPER"`
	OTPTTL            time.Duration `mapstructure:"OTP_TTL"`
	OTPResendCooldown time.Duration `mapstructure:"OTP_RESEND_COOLDOWN"`

	CORSAllowed string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	DevMailLog  bool   `mapstructure:"DEV_MAIL_LOG"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "fixhub.db")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("OTP_TTL", "10m")
	v.SetDefault("OTP_RESEND_COOLDOWN", "60s")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DEV_MAIL_LOG", true)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
