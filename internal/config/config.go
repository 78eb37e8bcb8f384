// Package config reads storyview settings from the environment.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	LibraryDir    string
	ListenAddr    string
	JWTSecret     string
	TokenTTL      time.Duration
	FrameInterval time.Duration
	BarWidth      int
	Repeat        bool
	HistorySize   int
}

// LoadEnv loads variables from the given .env files (".env" when none are
// named). Variables already set in the environment win. Missing files are
// not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func Load() Config {
	return Config{
		LibraryDir:    getEnv("STORYVIEW_LIBRARY_DIR", ""),
		ListenAddr:    getEnv("STORYVIEW_LISTEN_ADDR", ""),
		JWTSecret:     getEnv("STORYVIEW_JWT_SECRET", ""),
		TokenTTL:      getDuration("STORYVIEW_TOKEN_TTL", 24*time.Hour),
		FrameInterval: getDuration("STORYVIEW_FRAME_INTERVAL", 100*time.Millisecond),
		BarWidth:      getInt("STORYVIEW_BAR_WIDTH", 10),
		Repeat:        getBool("STORYVIEW_REPEAT", false),
		HistorySize:   getInt("STORYVIEW_HISTORY_SIZE", 50),
	}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
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

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
