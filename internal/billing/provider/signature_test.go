package provider

import "testing"

func TestVerifySignature(t *testing.T) {
	secret := "webhook-secret"
	body := []byte(`{"type":"checkout.completed","sessionId":"sess_1"}`)

	signature := Sign(secret, body)
	if !VerifySignature(secret, body, signature) {
		t.Fatal("expected valid signature to verify")
	}
	if VerifySignature(secret, body, "deadbeef") {
		t.Fatal("expected bogus signature to fail")
	}
	if VerifySignature(secret, []byte(`{"tampered":true}`), signature) {
		t.Fatal("expected tampered body to fail")
	}
	if VerifySignature("other-secret", body, signature) {
		t.Fatal("expected wrong secret to fail")
	}
}
