// internal/config/config.go
package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"database"`
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Auth struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"auth"`
	JWT struct {
		SecretKey string `mapstructure:"secret_key"`
	} `mapstructure:"jwt"`
	CORS struct {
		AllowedOrigins   []string `mapstructure:"allowed_origins"`
		AllowedMethods   []string `mapstructure:"allowed_methods"`
		AllowedHeaders   []string `mapstructure:"allowed_headers"`
		ExposedHeaders   []string `mapstructure:"exposed_headers"`
		AllowCredentials bool     `mapstructure:"allow_credentials"`
		MaxAge           int      `mapstructure:"max_age"`
	} `mapstructure:"cors"`
	Solana struct {
		RPCEndpoint string `mapstructure:"rpc_endpoint"`
		Network     string `mapstructure:"network"`
		// IssuerSecretKey is a JSON array private key, the same shape the
		// solana-keygen CLI writes.
		IssuerSecretKey string `mapstructure:"issuer_secret_key"`
	} `mapstructure:"solana"`
	Mailer MailerConfig `mapstructure:"mailer"`
}

type MailerConfig struct {
	// Type selects the implementation: "log", "smtp" or "ses".
	Type string     `mapstructure:"type"`
	From string     `mapstructure:"from"`
	SMTP SMTPConfig `mapstructure:"smtp"`
	SES  SESConfig  `mapstructure:"ses"`
}

type SMTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	From string `mapstructure:"from"`
}

type SESConfig struct {
	Region          string `mapstructure:"region"`
	AuthType        string `mapstructure:"auth_type"` // "static_credentials" or "iam_role"
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

var Cfg Config

func LoadConfig(path string) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("APP")
	viper.AutomaticEnv()
	viper.BindEnv("auth.enabled", "AUTH_ENABLED")
	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("solana.rpc_endpoint", "SOLANA_RPC_ENDPOINT")
	viper.BindEnv("solana.issuer_secret_key", "SOLANA_CERT_ISSUER_SECRET_KEY")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Warning: Config file not found. Using defaults and environment variables.")
		} else {
			log.Printf("Error reading config file: %s\n", err)
			return err
		}
	}

	if err := viper.Unmarshal(&Cfg); err != nil {
		log.Printf("Error unmarshalling config: %s\n", err)
		return err
	}

	if Cfg.Server.Port == "" {
		Cfg.Server.Port = DefaultServerPort
	}
	if Cfg.Log.Level == "" {
		Cfg.Log.Level = DefaultLogLevel
	}
	if Cfg.Solana.RPCEndpoint == "" {
		Cfg.Solana.RPCEndpoint = DefaultSolanaRPCEndpoint
	}
	if Cfg.Solana.Network == "" {
		Cfg.Solana.Network = DefaultSolanaNetwork
	}
	if Cfg.Mailer.Type == "" {
		Cfg.Mailer.Type = DefaultMailerType
	}
	if !viper.IsSet("auth.enabled") {
		Cfg.Auth.Enabled = DefaultAuthEnabled
	}
	if Cfg.Database.URL == "" {
		log.Println("Warning: Database URL is not set in config.")
	}

	log.Println("Config loaded successfully")
	log.Printf("Server Port: %s", Cfg.Server.Port)
	log.Printf("Solana Network: %s", Cfg.Solana.Network)
	log.Printf("Auth Enabled: %t", Cfg.Auth.Enabled)

	return nil
}
