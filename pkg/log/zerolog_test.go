package log

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
)

// TestZerologProviderJSON tests the JSON output of the zerolog provider
func TestZerologProviderJSON(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProvider(&buf)

	logger := provider.GetLoggerWithName("preprocessing.target_encoder")
	logger.Info("Fit started", SamplesKey, 19, VocabularySizeKey, 3)

	output := buf.String()
	if output == "" {
		t.Fatal("Expected log output, got empty string")
	}

	if !strings.Contains(output, `"component":"preprocessing.target_encoder"`) {
		t.Error("Component field not found in output")
	}

	if !strings.Contains(output, `"data.samples":19`) {
		t.Error("Samples field not found in output")
	}

	if !strings.Contains(output, `"data.vocabulary_size":3`) {
		t.Error("Vocabulary size field not found in output")
	}

	if !strings.Contains(output, "Fit started") {
		t.Error("Message not found in output")
	}
}

// TestZerologProviderLevelFilter tests level filtering
func TestZerologProviderLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProvider(&buf)
	provider.SetLevel(LevelWarn)

	logger := provider.GetLogger()
	logger.Info("suppressed message")
	logger.Warn("emitted message")

	output := buf.String()
	if strings.Contains(output, "suppressed message") {
		t.Error("Info message should be filtered at warn level")
	}

	if !strings.Contains(output, "emitted message") {
		t.Error("Warn message not found in output")
	}
}

// TestZerologProviderConsole tests the human readable console output
func TestZerologProviderConsole(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologConsoleProvider(&buf)

	logger := provider.GetLogger()
	logger.Info("console message", ModelNameKey, "FeatureSpace")

	output := buf.String()
	if !strings.Contains(output, "console message") {
		t.Error("Message not found in console output")
	}
}

// TestZerologLoggerWith tests field chaining through With
func TestZerologLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProvider(&buf)

	logger := provider.GetLogger().With(ModelNameKey, "BinaryTargetEncoder")
	logger.Info("contextual message", OperationKey, OperationFit)

	output := buf.String()
	if !strings.Contains(output, `"model.name":"BinaryTargetEncoder"`) {
		t.Error("Context field not found in output")
	}

	if !strings.Contains(output, `"ml.operation":"fit"`) {
		t.Error("Operation field not found in output")
	}
}

// TestZerologLoggerError tests error rendering
func TestZerologLoggerError(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProvider(&buf)

	logger := provider.GetLogger()
	logger.Error("encode failed", ErrAttrKey, fmt.Errorf("boom"))

	output := buf.String()
	if !strings.Contains(output, `"error":"boom"`) {
		t.Error("Error field not found in output")
	}
}

// TestZerologLoggerEnabled tests level reporting
func TestZerologLoggerEnabled(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProvider(&buf)
	provider.SetLevel(LevelInfo)

	logger := provider.GetLogger()
	ctx := context.Background()

	if logger.Enabled(ctx, LevelDebug) {
		t.Error("Debug should not be enabled at info level")
	}

	if !logger.Enabled(ctx, LevelInfo) {
		t.Error("Info should be enabled at info level")
	}

	if !logger.Enabled(ctx, LevelError) {
		t.Error("Error should be enabled at info level")
	}
}
