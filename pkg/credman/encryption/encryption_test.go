package encryption

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"testing"
)

func TestDeriveKey_LinuxVector(t *testing.T) {
	got := DeriveKey([]byte("abc"), []byte(Salt), LinuxIterations, KeyLength)
	want := []byte("7\xa1\xec\xd4m\xfcA\xc7\xb19Z\xd0\x19\xdcM\x17")
	if !bytes.Equal(got, want) {
		t.Fatalf("linux key: got %x, want %x", got, want)
	}
}

func TestDeriveKey_MacVector(t *testing.T) {
	got := DeriveKey([]byte("abc"), []byte(Salt), MacIterations, KeyLength)
	want := []byte("Y\xe2\xc0\xd0P\xf6\xf4\xe1l\xc1\x8cQ\xcb|\xcdY")
	if !bytes.Equal(got, want) {
		t.Fatalf("mac key: got %x, want %x", got, want)
	}
}

func TestDeriveKey_ArbitrarySalt(t *testing.T) {
	got := DeriveKey([]byte("peanuts"), bytes.Repeat([]byte{' '}, 16), 1, 16)
	want := []byte("g\xe1\x8e\x0fQ\x1c\x9b\xf3\xc9`!\xaa\x90\xd9\xd34")
	if !bytes.Equal(got, want) {
		t.Fatalf("got %x, want %x", got, want)
	}
}

func TestDeriveKey_Deterministic(t *testing.T) {
	a := DeriveKey([]byte("secret"), []byte(Salt), 3, 32)
	b := DeriveKey([]byte("secret"), []byte(Salt), 3, 32)
	if len(a) != 32 {
		t.Fatalf("expected 32 bytes, got %d", len(a))
	}
	if !bytes.Equal(a, b) {
		t.Fatal("DeriveKey should be deterministic")
	}
}

func TestDecryptAESCBC_ChromiumVector(t *testing.T) {
	key := DeriveKey([]byte(""), []byte(Salt), LinuxIterations, KeyLength)
	ciphertext := []byte("\xccW%\xcd\xe6\xe6\x9fM\" \xa7\xb0\xca\xe4\x07\xd6")
	plain, err := DecryptAESCBC(ciphertext, key, nil)
	if err != nil {
		t.Fatalf("DecryptAESCBC: %v", err)
	}
	if string(plain) != "USD" {
		t.Fatalf("expected USD, got %q", plain)
	}
}

func TestDecryptAESCBC_RoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 16)
	msg := []byte("exactly16bytes!!")
	padded := append(append([]byte{}, msg...), bytes.Repeat([]byte{16}, 16)...)

	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, ChromiumIV).CryptBlocks(ct, padded)

	got, err := DecryptAESCBC(ct, key, ChromiumIV)
	if err != nil {
		t.Fatalf("DecryptAESCBC: %v", err)
	}
	if !bytes.Equal(got, msg) {
		t.Fatalf("got %q, want %q", got, msg)
	}
}

func TestDecryptAESCBC_Errors(t *testing.T) {
	key := bytes.Repeat([]byte{0x01}, 16)
	if _, err := DecryptAESCBC([]byte("short"), key, nil); !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("partial block: expected ErrInvalidCiphertext, got %v", err)
	}
	if _, err := DecryptAESCBC(nil, key, nil); !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("empty input: expected ErrInvalidCiphertext, got %v", err)
	}
	if _, err := DecryptAESCBC(make([]byte, 16), []byte{0x01}, nil); err == nil {
		t.Error("expected error for invalid key size")
	}
	if _, err := DecryptAESCBC(make([]byte, 16), key, []byte("tiny")); err == nil {
		t.Error("expected error for short IV")
	}
}

func TestUnpadPKCS7(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		want    []byte
		wantErr bool
	}{
		{"one byte pad", []byte("abc\x01"), []byte("abc"), false},
		{"full block pad", bytes.Repeat([]byte{16}, 16), []byte{}, false},
		{"three byte pad", []byte("abcde\x03\x03\x03"), []byte("abcde"), false},
		{"zero pad byte", []byte("abc\x00"), nil, true},
		{"pad longer than block", append(make([]byte, 31), 17), nil, true},
		{"inconsistent pad", []byte("abc\x01\x02"), nil, true},
		{"empty", []byte{}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnpadPKCS7(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPadding) {
					t.Fatalf("expected ErrInvalidPadding, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecryptAESGCM_ChromiumVector(t *testing.T) {
	key := []byte("Y\xef\xad\xad\xeerp\xf0Y\xe6\x9b\x12\xc2<z\x16]\n\xbb\xb8\xcb\xd7\x9bA\xc3\x14e\x99{\xd6\xf4&")
	raw := []byte("T\xb8\xf3\xb8\x01\xa7TtcV\xfc\x88\xb8\xb8\xef\x05\xb5\xfd\x18\xc90\x009\xab\xb1\x893\x85)\x87\xe1\xa9-\xa3\xad=")
	nonce := raw[:GCMNonceSize]
	ct := raw[GCMNonceSize : len(raw)-GCMTagSize]
	tag := raw[len(raw)-GCMTagSize:]

	plain, err := DecryptAESGCM(ct, key, nonce, tag)
	if err != nil {
		t.Fatalf("DecryptAESGCM: %v", err)
	}
	if string(plain) != "32101439" {
		t.Fatalf("expected 32101439, got %q", plain)
	}
}

func TestDecryptAESGCM_TagMismatch(t *testing.T) {
	key := bytes.Repeat([]byte{0x11}, 32)
	nonce := bytes.Repeat([]byte{0x22}, GCMNonceSize)
	block, _ := aes.NewCipher(key)
	aead, _ := cipher.NewGCM(block)
	sealed := aead.Seal(nil, nonce, []byte("hello"), nil)
	ct, tag := sealed[:len(sealed)-GCMTagSize], sealed[len(sealed)-GCMTagSize:]

	plain, err := DecryptAESGCM(ct, key, nonce, tag)
	if err != nil || string(plain) != "hello" {
		t.Fatalf("expected hello, got %q (%v)", plain, err)
	}

	badTag := append([]byte{}, tag...)
	badTag[0] ^= 0xff
	if _, err := DecryptAESGCM(ct, key, nonce, badTag); !errors.Is(err, ErrTagMismatch) {
		t.Fatalf("expected ErrTagMismatch, got %v", err)
	}
	if _, err := DecryptAESGCM(ct, key, nonce, tag[:4]); !errors.Is(err, ErrTagMismatch) {
		t.Fatalf("expected ErrTagMismatch for short tag, got %v", err)
	}
}

func TestDecodeText(t *testing.T) {
	if s, err := DecodeText([]byte("tz=Europe.London")); err != nil || s != "tz=Europe.London" {
		t.Fatalf("unexpected result %q, %v", s, err)
	}
	if _, err := DecodeText([]byte{0xff, 0xfe}); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
}
