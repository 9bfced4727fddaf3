package gateway

import (
	"log/slog"
	"os"
	"testing"

	"bridge-lite/apps/server/internal/logger"
)

func TestMain(m *testing.M) {
	slog.SetDefault(logger.New(logger.Config{Level: "warn"}, os.Stderr))
	os.Exit(m.Run())
}
