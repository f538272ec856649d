package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultLogPath is where FileSender writes when no path is configured.
var DefaultLogPath = filepath.Join("logs", "dispatch.log")

// FileSender appends one line per message to a local file instead of
// delivering it.  It is the fallback when no SMTP or Twilio credentials are
// configured, so developers can pick tokens and codes out of the log.
type FileSender struct {
	Path string
	now  func() time.Time
	mu   sync.Mutex
}

func NewFileSender(path string) *FileSender {
	if path == "" {
		path = DefaultLogPath
	}
	return &FileSender{Path: path, now: time.Now}
}

func (f *FileSender) SendEmail(_ context.Context, to, subject, htmlBody string) error {
	return f.append(fmt.Sprintf("email | to=%s | subject=%q | body=%q", to, subject, oneLine(htmlBody)))
}

func (f *FileSender) SendSMS(_ context.Context, to, body string) error {
	return f.append(fmt.Sprintf("sms | to=%s | body=%q", to, body))
}

func (f *FileSender) append(entry string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	file, err := os.OpenFile(f.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	now := time.Now
	if f.now != nil {
		now = f.now
	}
	line := fmt.Sprintf("[%s] %s\n", now().UTC().Format(time.RFC3339), entry)
	if _, err := file.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
