package auth

import (
	"testing"
	"time"
)

func TestBuildAndParseJWT(t *testing.T) {
	secret := []byte("test-secret-min-32-chars!!")
	tok, err := BuildJWT(secret, "cliente-123", RoleCliente, time.Hour)
	if err != nil {
		t.Fatalf("BuildJWT: %v", err)
	}
	claims, err := ParseJWT(secret, tok)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != "cliente-123" || claims.Role != RoleCliente {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestParseJWT_WrongSecret(t *testing.T) {
	tok, err := BuildJWT([]byte("secret-a-com-32-caracteres-ok!!!"), "id", RoleOwner, time.Hour)
	if err != nil {
		t.Fatalf("BuildJWT: %v", err)
	}
	if _, err := ParseJWT([]byte("secret-b-com-32-caracteres-ok!!!"), tok); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestParseJWT_Expired(t *testing.T) {
	secret := []byte("test-secret-min-32-chars!!")
	tok, err := BuildJWT(secret, "id", RoleCliente, -time.Minute)
	if err != nil {
		t.Fatalf("BuildJWT: %v", err)
	}
	if _, err := ParseJWT(secret, tok); err == nil {
		t.Fatal("expected error for expired token")
	}
}
