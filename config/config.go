// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package config

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Application config structure
type AppConfig struct {
	Name     string `mapstructure:"service_name" validate:"required"`
	Version  string `mapstructure:"version" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"required"`
	LogPath  string `mapstructure:"log_path" validate:"required"`

	// Backend collaborators (HTTP + WebSocket contracts only).
	AnalysisHost string `mapstructure:"analysis_host" validate:"required,url"`
	TelemetryURL string `mapstructure:"telemetry_url" validate:"required"`

	// Client-side persisted state.
	TokenPath string `mapstructure:"token_path" validate:"required"`
	StorePath string `mapstructure:"store_path" validate:"required"`

	// Interview defaults.
	DefaultQuestionCount int    `mapstructure:"default_question_count" validate:"required,min=1,max=5"`
	TranscriptLanguage   string `mapstructure:"transcript_language" validate:"required"`
}

// reading config and intializing configs for application
func InitConfig() (*viper.Viper, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	path := os.Getenv("ENV_PATH")
	if path != "" {
		log.Printf("env path %v", path)
		vConfig.SetConfigFile(path)
	}
	vConfig.SetConfigType("env")
	vConfig.AutomaticEnv()

	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		log.Printf("Reading from env varaibles.")
	}

	return vConfig, nil
}

func setDefault(v *viper.Viper) {
	// setting all default values
	v.SetDefault("SERVICE_NAME", "interview-capture")
	v.SetDefault("VERSION", "0.0.1")
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("LOG_PATH", "logs")

	v.SetDefault("ANALYSIS_HOST", "http://localhost:8000")
	v.SetDefault("TELEMETRY_URL", "ws://localhost:8000/ws/analyze")

	v.SetDefault("TOKEN_PATH", ".interview")
	v.SetDefault("STORE_PATH", ".interview/sessions.db")

	v.SetDefault("DEFAULT_QUESTION_COUNT", 3)
	v.SetDefault("TRANSCRIPT_LANGUAGE", "ko-KR")
}

// Getting application config from viper
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig
	err := v.Unmarshal(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}

	// valdating the app config
	validate := validator.New()
	err = validate.Struct(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}
	return &config, nil
}
