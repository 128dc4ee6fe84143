package core

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestApplyProcessorOptions(t *testing.T) {
	logger := zap.NewExample()
	cfg := ApplyProcessorOptions(WithLogger(logger))
	if cfg.Logger != logger {
		t.Fatal("logger option not applied")
	}
}

func TestNilOptionsIgnored(t *testing.T) {
	cfg := ApplyProcessorOptions(nil, WithLogger(nil))
	if cfg.Logger == nil {
		t.Fatal("default logger must not be nil")
	}
}

type sampleConfig struct {
	Rate  float64 `validate:"gt=0"`
	Kind  string  `validate:"oneof=a b"`
	Count int     `validate:"gte=1"`
}

func TestValidate(t *testing.T) {
	if err := Validate(sampleConfig{Rate: 1, Kind: "a", Count: 1}); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	err := Validate(sampleConfig{Rate: 0, Kind: "c", Count: 1})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
	if !strings.Contains(err.Error(), "Rate") || !strings.Contains(err.Error(), "Kind") {
		t.Fatalf("error should name failing fields: %v", err)
	}
}

func TestConfigf(t *testing.T) {
	err := Configf("unknown method %q", "foo")
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}
