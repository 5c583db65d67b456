package helpers

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "failures.log")

	var out bytes.Buffer
	logger := NewLogger(tmpFile, zerolog.New(&out))
	logger.now = func() time.Time { return time.Date(2023, 3, 25, 10, 52, 1, 0, time.UTC) }

	logger.LogError("2023-03-25-105201-dump.html", errors.New("[field:price] listing #3: malformed field"))
	logger.LogError("2023-03-25-105201-dump.html", errors.New("[timestamp] listing #7: unrecognized timestamp"))

	data, err := os.ReadFile(tmpFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[2023-03-25 10:52:01] [2023-03-25-105201-dump.html] [field:price] listing #3: malformed field", lines[0])
	assert.Contains(t, lines[1], "unrecognized timestamp")

	// failures are logged too
	assert.Contains(t, out.String(), `"level":"warn"`)
	assert.Contains(t, out.String(), `"source":"2023-03-25-105201-dump.html"`)

	out.Reset()
	logger.LogInfo("Parsed %d pages", 2)
	assert.Contains(t, out.String(), "Parsed 2 pages")
}

func TestLoggerJoinedErrorOnOneLine(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "failures.log")
	logger := NewLogger(tmpFile, zerolog.Nop())

	logger.LogError("page.html", errors.Join(errors.New("first\tfailure"), errors.New("second  failure")))

	data, err := os.ReadFile(tmpFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasSuffix(lines[0], "[page.html] first failure second failure"), lines[0])
}

func TestLoggerWithoutFile(t *testing.T) {
	var out bytes.Buffer
	logger := NewLogger("", zerolog.New(&out))

	logger.LogError("page.html", errors.New("boom"))
	assert.Contains(t, out.String(), "boom")
}
