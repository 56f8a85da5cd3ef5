package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	kv := sanitizeKVs([]interface{}{
		"email", "buyer@example.com",
		"vnp_SecureHash", "abcdef",
		"order_code", "ORD250101123456",
		"user_id", "9a3c",
	})
	if len(kv) != 8 {
		t.Fatalf("unexpected kv length: %d", len(kv))
	}
	if kv[1] != "[REDACTED]" {
		t.Fatalf("email not redacted: %v", kv[1])
	}
	if kv[3] != "[REDACTED]" {
		t.Fatalf("secure hash not redacted: %v", kv[3])
	}
	if kv[5] != "ORD250101123456" {
		t.Fatalf("order code should pass through: %v", kv[5])
	}
	if s, _ := kv[7].(string); !strings.HasPrefix(s, "hash:") {
		t.Fatalf("user_id should be hashed: %v", kv[7])
	}
}

func TestSanitizeKVsOddLength(t *testing.T) {
	kv := sanitizeKVs([]interface{}{"status", 200, "dangling"})
	if len(kv) != 3 || kv[2] != "dangling" {
		t.Fatalf("unexpected kv: %v", kv)
	}
}

func TestLooksLikeJWT(t *testing.T) {
	if !looksLikeJWT("eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTYifQ.sig") {
		t.Fatal("expected jwt shape to be detected")
	}
	if looksLikeJWT("a.b.c") {
		t.Fatal("short segments should not count as jwt")
	}
}
