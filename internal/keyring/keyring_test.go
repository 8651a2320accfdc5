package keyring

import (
	"testing"

	gokeyring "github.com/zalando/go-keyring"
)

const testAPIKey = "hf_0123456789abcdef"

func TestSetAndGetAPIKey(t *testing.T) {
	gokeyring.MockInit()

	if err := SetAPIKey(testAPIKey); err != nil {
		t.Fatalf("SetAPIKey() failed: %v", err)
	}

	got, err := GetAPIKey()
	if err != nil {
		t.Fatalf("GetAPIKey() failed: %v", err)
	}
	if got != testAPIKey {
		t.Errorf("GetAPIKey() = %q, want %q", got, testAPIKey)
	}
}

func TestSetAPIKeyRejectsBadInput(t *testing.T) {
	gokeyring.MockInit()

	tests := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"too short", "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := SetAPIKey(tt.key); err == nil {
				t.Errorf("SetAPIKey(%q) should return an error", tt.key)
			}
		})
	}
}

func TestGetAPIKeyNotFound(t *testing.T) {
	gokeyring.MockInit()
	_ = DeleteAPIKey()

	if _, err := GetAPIKey(); err != ErrNotFound {
		t.Errorf("GetAPIKey() error = %v, want %v", err, ErrNotFound)
	}
}

func TestDeleteAPIKey(t *testing.T) {
	gokeyring.MockInit()

	if err := SetAPIKey(testAPIKey); err != nil {
		t.Fatalf("SetAPIKey() failed: %v", err)
	}
	if err := DeleteAPIKey(); err != nil {
		t.Fatalf("DeleteAPIKey() failed: %v", err)
	}
	if _, err := GetAPIKey(); err != ErrNotFound {
		t.Errorf("after DeleteAPIKey(), GetAPIKey() error = %v, want %v", err, ErrNotFound)
	}
	if err := DeleteAPIKey(); err != ErrNotFound {
		t.Errorf("second DeleteAPIKey() error = %v, want %v", err, ErrNotFound)
	}
}

func TestSessionTokenIsSeparateFromAPIKey(t *testing.T) {
	gokeyring.MockInit()

	if err := SetAPIKey(testAPIKey); err != nil {
		t.Fatalf("SetAPIKey() failed: %v", err)
	}
	if err := SetSessionToken("header.payload.signature"); err != nil {
		t.Fatalf("SetSessionToken() failed: %v", err)
	}

	if err := DeleteSessionToken(); err != nil {
		t.Fatalf("DeleteSessionToken() failed: %v", err)
	}
	if _, err := GetSessionToken(); err != ErrNotFound {
		t.Errorf("GetSessionToken() error = %v, want %v", err, ErrNotFound)
	}
	if got, err := GetAPIKey(); err != nil || got != testAPIKey {
		t.Errorf("GetAPIKey() = %q, %v; session delete must not touch the api key", got, err)
	}
}

func TestIsAvailable(t *testing.T) {
	gokeyring.MockInit()

	if !IsAvailable() {
		t.Error("IsAvailable() should return true with mock keyring")
	}
}
