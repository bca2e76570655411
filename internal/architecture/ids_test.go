package architecture

import (
	"strings"
	"testing"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Stripe API", "stripe-api"},
		{"stripe_api", "stripe-api"},
		{"  Stripe--API ", "stripe-api"},
		{"redis.cache", "redis-cache"},
		{"PostgreSQL", "postgresql"},
		{"trailing-", "trailing"},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestComponentID_Deterministic(t *testing.T) {
	a := ComponentID(TypeService, "Stripe API")
	b := ComponentID(TypeService, "stripe_api")
	if a != b {
		t.Errorf("expected normalized names to share an ID: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "service_") {
		t.Errorf("expected type prefix, got %s", a)
	}
	// 16 digest bytes, hex encoded
	if len(strings.TrimPrefix(a, "service_")) != 32 {
		t.Errorf("unexpected digest length in %s", a)
	}
	if ComponentID(TypeDatabase, "Stripe API") == a {
		t.Error("expected type to be part of the ID")
	}
}

func TestConnectionID_KeyedByFile(t *testing.T) {
	from, to := FileRef("src/pay.ts"), ComponentID(TypeService, "stripe")
	a := ConnectionID(from, to, ConnServiceCall, "src/pay.ts")
	if a != ConnectionID(from, to, ConnServiceCall, "src/pay.ts") {
		t.Error("expected identical inputs to yield identical IDs")
	}
	if a == ConnectionID(from, to, ConnServiceCall, "src/other.ts") {
		t.Error("expected source file to be part of the ID")
	}
	if a == ConnectionID(from, to, ConnImports, "src/pay.ts") {
		t.Error("expected connection type to be part of the ID")
	}
	if !strings.HasPrefix(a, "conn_") {
		t.Errorf("expected conn_ prefix, got %s", a)
	}
}

func TestDigest_LengthPrefixed(t *testing.T) {
	if digest("ab", "c") == digest("a", "bc") {
		t.Error("expected part boundaries to affect the digest")
	}
}

func TestFileRef(t *testing.T) {
	id := FileRef("api/handler.go")
	if !IsFileRef(id) {
		t.Fatalf("IsFileRef(%q) = false", id)
	}
	if got := FilePath(id); got != "api/handler.go" {
		t.Errorf("FilePath = %q", got)
	}
	if IsFileRef(ComponentID(TypeDatabase, "postgres")) {
		t.Error("component ID misreported as file ref")
	}
}
