package metrics

import (
	"context"
	"testing"
)

func TestEnabled(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"":             false,
		"  ":           false,
		"off":          false,
		"Disabled":     false,
		"FALSE":        false,
		":9464":        true,
		"0.0.0.0:9100": true,
	}
	for addr, want := range cases {
		if got := Enabled(addr); got != want {
			t.Fatalf("Enabled(%q) = %v, want %v", addr, got, want)
		}
	}
}

func TestStartServerDisabledReturnsNil(t *testing.T) {
	t.Parallel()

	srv, errCh := StartServer(context.Background(), "off")
	if srv != nil || errCh != nil {
		t.Fatalf("expected disabled metrics server, got %v %v", srv, errCh)
	}
}
