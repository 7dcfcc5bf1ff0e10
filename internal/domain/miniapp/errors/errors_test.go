package errors

import "testing"

func TestErrorHelpers(t *testing.T) {
	err := NewMalformedPayload("no user id")
	if !IsMalformedPayload(err) {
		t.Fatal("expected malformed payload")
	}

	wrapped := WrapInternal(err, "ctx")
	if !IsInternal(wrapped) {
		t.Fatal("expected internal")
	}

	if IsUnauthorized(err) {
		t.Fatal("unexpected unauthorized match")
	}
}
