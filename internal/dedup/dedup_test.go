package dedup

import "testing"

func TestNewServiceWithClient_UsesProvidedKey(t *testing.T) {
	s := NewServiceWithClient(nil, "voice:fingerprints")
	if s.key != "voice:fingerprints" {
		t.Errorf("expected key to be preserved, got %q", s.key)
	}
}
