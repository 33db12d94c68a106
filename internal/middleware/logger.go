package middleware

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// Logger returns a Fiber middleware that only logs slow or failed requests,
// keeping health probes and fast happy-path traffic out of the logs.
func Logger() fiber.Handler {
	return logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		Output: &filteredWriter{
			dest:          os.Stdout,
			slowThreshold: 500 * time.Millisecond,
			statusFloor:   fiber.StatusBadRequest,
		},
	})
}

// filteredWriter drops log lines for fast, successful requests. It relies on
// the "time | status | latency | method path" format configured above; lines
// that do not match pass through untouched.
type filteredWriter struct {
	dest          io.Writer
	slowThreshold time.Duration
	statusFloor   int
}

func (w *filteredWriter) Write(p []byte) (int, error) {
	parts := strings.SplitN(string(p), " | ", 4)
	if len(parts) < 4 {
		return w.dest.Write(p)
	}

	if status, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil && status >= w.statusFloor {
		return w.dest.Write(p)
	}
	if latency, err := time.ParseDuration(strings.TrimSpace(parts[2])); err == nil && latency >= w.slowThreshold {
		return w.dest.Write(p)
	}

	return len(p), nil
}
