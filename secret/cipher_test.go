package secret

import (
	"errors"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

// Low scrypt cost keeps tests fast.
func testCipher() *PassphraseCipher {
	return NewPassphraseCipherWithCost(1 << 4)
}

func TestDeriveKey(t *testing.T) {
	for _, token := range []string{"", "   "} {
		if _, err := DeriveKey(token); !errors.Is(err, ErrNoSessionKey) {
			t.Errorf("DeriveKey(%q) error = %v, want ErrNoSessionKey", token, err)
		}
	}

	short, err := DeriveKey("abc")
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	if len(short) != KeyLength {
		t.Errorf("len = %d, want %d", len(short), KeyLength)
	}
	if again, _ := DeriveKey(" abc "); again != short {
		t.Error("surrounding whitespace changed the key")
	}

	// Multi-byte runes past any fixed prefix still count.
	a, _ := DeriveKey(strings.Repeat("é", 40) + "a")
	b, _ := DeriveKey(strings.Repeat("é", 40) + "b")
	if a == b {
		t.Error("tokens differing at the end derived the same key")
	}
}

func TestDeriveKey_JWTsWithDifferentClaims(t *testing.T) {
	sign := func(sub string) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: sub}).
			SignedString([]byte("test-signing-key"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return tok
	}
	ta, tb := sign("account-a"), sign("account-b")
	if ta[:KeyLength/2] != tb[:KeyLength/2] {
		t.Fatal("expected a shared JWT header prefix")
	}

	ka, err := DeriveKey(ta)
	if err != nil {
		t.Fatal(err)
	}
	kb, err := DeriveKey(tb)
	if err != nil {
		t.Fatal(err)
	}
	if ka == kb {
		t.Errorf("two sessions derived the same key %q", ka)
	}

	sealed, err := testCipher().Encrypt(ka, []byte(`{"user":{"first_name":"A"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := testCipher().Decrypt(kb, sealed); !errors.Is(err, ErrDecrypt) {
		t.Errorf("Decrypt under the other session: err = %v, want ErrDecrypt", err)
	}
}

func TestPassphraseCipher_RoundTrip(t *testing.T) {
	c := testCipher()
	key := Key("abcdef0123456789abcdef0123456789")
	plaintext := []byte(`{"user":{"first_name":"Amara"}}`)

	ct, err := c.Encrypt(key, plaintext)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if !IsCiphertext(ct) {
		t.Errorf("ciphertext %q does not start with %q", ct, CiphertextPrefix)
	}
	if strings.Contains(ct, "Amara") {
		t.Error("ciphertext leaks plaintext")
	}

	got, err := c.Decrypt(key, ct)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if string(got) != string(plaintext) {
		t.Errorf("Decrypt = %q, want %q", got, plaintext)
	}
}

func TestPassphraseCipher_FreshSaltPerCall(t *testing.T) {
	c := testCipher()
	a, _ := c.Encrypt("k", []byte("same"))
	b, _ := c.Encrypt("k", []byte("same"))
	if a == b {
		t.Error("two encryptions of the same plaintext should differ")
	}
}

func TestPassphraseCipher_DecryptFailures(t *testing.T) {
	c := testCipher()
	ct, err := c.Encrypt("right-key", []byte("secret"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	tests := []struct {
		name    string
		key     Key
		input   string
		wantErr error
	}{
		{"wrong key", "wrong-key", ct, ErrDecrypt},
		{"empty key", "", ct, ErrNoSessionKey},
		{"plaintext", "right-key", `{"user":null}`, ErrNotCiphertext},
		{"truncated", "right-key", CiphertextPrefix + "8=", ErrDecrypt},
		{"corrupted", "right-key", ct[:len(ct)-8] + "AAAAAAA=", ErrDecrypt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decrypt(tt.key, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decrypt error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPassphraseCipher_EncryptWithoutKey(t *testing.T) {
	if _, err := testCipher().Encrypt("", []byte("x")); !errors.Is(err, ErrNoSessionKey) {
		t.Errorf("Encrypt with empty key = %v, want ErrNoSessionKey", err)
	}
}

func TestNewPassphraseCipherWithCost_InvalidFallsBack(t *testing.T) {
	if c := NewPassphraseCipherWithCost(100); c.cost != DefaultScryptCost {
		t.Errorf("cost = %d, want default %d", c.cost, DefaultScryptCost)
	}
}
