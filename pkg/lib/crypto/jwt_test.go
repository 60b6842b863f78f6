package crypto

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestIssueJWT_Verify(t *testing.T) {
	key, _ := ParsePrivateKey(keyOne)
	ccid, _ := ComputeCCID(key.PubKey())
	now := time.Unix(1_700_000_000, 0)

	token, err := IssueJWT(key, Claims{Issuer: ccid, Audience: "example.com", Subject: "concrnt"}, JWTOptions{Now: now})
	if err != nil {
		t.Fatalf("IssueJWT() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("IssueJWT() = %q, want three segments", token)
	}

	parsed, err := VerifyJWT(token, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("VerifyJWT() error = %v", err)
	}
	if parsed.Header.Algorithm != JWTAlgorithm || parsed.Header.Type != JWTType {
		t.Errorf("header = %+v", parsed.Header)
	}
	if parsed.Claims.IssuedAt != "1700000000" {
		t.Errorf("iat = %s, want 1700000000", parsed.Claims.IssuedAt)
	}
	if parsed.Claims.ExpiresAt != "1700000300" {
		t.Errorf("exp = %s, want 1700000300", parsed.Claims.ExpiresAt)
	}
	if parsed.Claims.JWTID == "" {
		t.Error("jti should be filled")
	}
	if len(parsed.Signature) != SignatureSize {
		t.Errorf("signature len = %d, want %d", len(parsed.Signature), SignatureSize)
	}
}

func TestCheckJWTIsValid(t *testing.T) {
	key, _ := ParsePrivateKey(keyOne)
	now := time.Unix(1_700_000_000, 0)
	token, _ := IssueJWT(key, Claims{Issuer: "x"}, JWTOptions{Now: now})

	if !CheckJWTIsValid(token, now, 30*time.Second) {
		t.Error("fresh token should be valid")
	}
	if CheckJWTIsValid(token, now.Add(4*time.Minute+45*time.Second), 30*time.Second) {
		t.Error("token inside refresh margin should be invalid")
	}
	if CheckJWTIsValid(token, now.Add(6*time.Minute), 0) {
		t.Error("expired token should be invalid")
	}
	if CheckJWTIsValid("garbage", now, 0) {
		t.Error("garbage should be invalid")
	}
}

func TestVerifyJWT_Expired(t *testing.T) {
	key, _ := ParsePrivateKey(keyOne)
	ccid, _ := ComputeCCID(key.PubKey())
	now := time.Unix(1_700_000_000, 0)
	token, _ := IssueJWT(key, Claims{Issuer: ccid}, JWTOptions{Now: now, Lifetime: time.Minute})

	if _, err := VerifyJWT(token, now.Add(2*time.Minute)); !errors.Is(err, ErrJWTExpired) {
		t.Errorf("VerifyJWT() error = %v, want ErrJWTExpired", err)
	}
}

func TestVerifyJWT_KeyID(t *testing.T) {
	sub, _ := ParsePrivateKey(strings.Repeat("0", 63) + "3")
	ckid, _ := ComputeCKID(sub.PubKey())
	owner, _ := ParsePrivateKey(keyOne)
	ccid, _ := ComputeCCID(owner.PubKey())
	now := time.Unix(1_700_000_000, 0)

	token, err := IssueJWT(sub, Claims{Issuer: ccid}, JWTOptions{Now: now, KeyID: ckid})
	if err != nil {
		t.Fatalf("IssueJWT() error = %v", err)
	}
	parsed, err := VerifyJWT(token, now)
	if err != nil {
		t.Fatalf("VerifyJWT() error = %v", err)
	}
	if parsed.Header.KeyID != ckid {
		t.Errorf("kid = %s, want %s", parsed.Header.KeyID, ckid)
	}

	// 主密钥签名但声明 kid，签名者不匹配
	forged, _ := IssueJWT(owner, Claims{Issuer: ccid}, JWTOptions{Now: now, KeyID: ckid})
	if _, err := VerifyJWT(forged, now); !errors.Is(err, ErrSignerMismatch) {
		t.Errorf("VerifyJWT(forged) error = %v, want ErrSignerMismatch", err)
	}
}

func TestParseJWT_Malformed(t *testing.T) {
	for _, tok := range []string{"", "a.b", "!!.e30.AA", "e30.!!.AA"} {
		if _, err := ParseJWT(tok); !errors.Is(err, ErrMalformedJWT) {
			t.Errorf("ParseJWT(%q) error = %v, want ErrMalformedJWT", tok, err)
		}
	}
}
