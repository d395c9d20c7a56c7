package logger

import "testing"

func TestSanitizeRedactsSecrets(t *testing.T) {
	out := sanitizeKVs([]interface{}{"username", "alice", "password", "hunter2", "password_hash", "abc", "dangling"})
	if len(out) != 7 {
		t.Fatalf("expected 7 values, got %d", len(out))
	}
	if out[1] != "alice" {
		t.Fatalf("username should pass through, got %v", out[1])
	}
	if out[3] != "[REDACTED]" || out[5] != "[REDACTED]" {
		t.Fatalf("expected secrets redacted, got %v", out)
	}
	if out[6] != "dangling" {
		t.Fatalf("expected trailing key kept, got %v", out[6])
	}
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	log := NewNop()
	log.With("session_id", "s1").Info("hello", "score", 10)
	log.Sync()
}
