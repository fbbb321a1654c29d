package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/gezibash/arc-bench/internal/storage"
)

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		opts  storage.Options
		field string
	}{
		{"empty addr", storage.Options{}, KeyAddr},
		{"negative db", storage.Options{KeyAddr: "localhost:6379", KeyDB: "-1"}, KeyDB},
		{"bad db", storage.Options{KeyAddr: "localhost:6379", KeyDB: "one"}, KeyDB},
		{"bad timeout", storage.Options{KeyAddr: "localhost:6379", KeyDialTimeout: "soon"}, KeyDialTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFactory(context.Background(), tt.opts)
			var cfgErr *storage.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("err = %v, want ConfigError", err)
			}
			if cfgErr.Field != tt.field {
				t.Fatalf("field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}
