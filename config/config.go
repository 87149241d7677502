package config

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string

	// Consent grants expire after this window unless the debtor responds.
	ConsentTTL time.Duration

	// Upload ceiling shared by credential and attachment uploads.
	MaxUploadBytes int64

	// Tone classifier endpoint. Empty means the local keyword fallback is used.
	ToneAPIURL     string
	ToneAPIKey     string
	ToneTimeout    time.Duration
	ToneBlocksSend bool

	// Envelope master key, hex-encoded 32 bytes.
	EnvelopeMasterKey []byte

	// Signing key and lifetime for attachment download locators.
	DownloadSigningKey []byte
	DownloadTTL        time.Duration
}

// New sets up all config related services
func New() *Config {

	//setup zap logger and replace default logger
	logger := zap.NewExample()
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	masterKey, err := hex.DecodeString(os.Getenv("ENVELOPE_MASTER_KEY"))
	if err != nil {
		zap.S().With(err).Error("ENVELOPE_MASTER_KEY is not valid hex")
	}

	return &Config{
		URL:                os.Getenv("DB_URI"),
		DatabaseName:       os.Getenv("DB_NAME"),
		BaseURL:            os.Getenv("BASE_URL"),
		Port:               os.Getenv("PORT"),
		ConsentTTL:         durationEnv("CONSENT_TTL", 7*24*time.Hour),
		MaxUploadBytes:     int64Env("MAX_UPLOAD_BYTES", 10<<20),
		ToneAPIURL:         os.Getenv("TONE_API_URL"),
		ToneAPIKey:         os.Getenv("TONE_API_KEY"),
		ToneTimeout:        durationEnv("TONE_TIMEOUT", 5*time.Second),
		ToneBlocksSend:     boolEnv("TONE_BLOCK_GATES_MESSAGES", false),
		EnvelopeMasterKey:  masterKey,
		DownloadSigningKey: []byte(os.Getenv("DOWNLOAD_SIGNING_KEY")),
		DownloadTTL:        durationEnv("DOWNLOAD_TTL", 5*time.Minute),
	}
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		zap.S().Warnw("invalid duration env, using default", "key", key, "value", v)
		return fallback
	}
	return d
}

func int64Env(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		zap.S().Warnw("invalid int env, using default", "key", key, "value", v)
		return fallback
	}
	return n
}

func boolEnv(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
}
