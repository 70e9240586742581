package utils

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPassword("correct horse battery staple", hash) {
		t.Fatal("CheckPassword rejected the right password")
	}
	if CheckPassword("wrong", hash) {
		t.Fatal("CheckPassword accepted the wrong password")
	}
}
