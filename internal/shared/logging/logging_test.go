package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/respira-diag/fuzzydx/internal/shared/config"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LogConfig{Level: "debug", Format: "json"}, &buf)

	logger.WithField("rules", 12).Debug("knowledge base loaded")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "knowledge base loaded" {
		t.Errorf("Expected msg 'knowledge base loaded', got %v", entry["msg"])
	}
	if entry["rules"] != float64(12) {
		t.Errorf("Expected rules 12, got %v", entry["rules"])
	}
}

func TestNewWithWriterLevelFallback(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LogConfig{Level: "chatty", Format: "text"}, &buf)

	if logger.GetLevel() != logrus.InfoLevel {
		t.Errorf("Expected info level, got %s", logger.GetLevel())
	}
	logger.Debug("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("Expected debug entry to be filtered")
	}
}
