package snapfmt

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	in := []byte{0x28, 0xb5, 0x2f, 0xfd, 0x00, 0xff, 0x10}
	tok := EncodeToken(in)
	if strings.ContainsAny(tok, "+/=") {
		t.Fatalf("token not url safe: %q", tok)
	}
	out, err := DecodeToken(tok)
	if err != nil || !bytes.Equal(in, out) {
		t.Fatalf("round trip = %x, %v", out, err)
	}
	if _, err := DecodeToken(""); !errors.Is(err, ErrFormat) {
		t.Fatalf("empty token err = %v", err)
	}
	if _, err := DecodeToken("***"); err == nil {
		t.Fatalf("bad token should fail")
	}
}

func TestFrame(t *testing.T) {
	var buf bytes.Buffer
	payload := bytes.Repeat([]byte("blast"), 100)
	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte(Magic)) {
		t.Fatalf("missing magic")
	}
	raw := append([]byte(nil), buf.Bytes()...)
	got, err := ReadFrame(&buf)
	if err != nil || !bytes.Equal(got, payload) {
		t.Fatalf("read = %d bytes, %v", len(got), err)
	}

	if _, err := ReadFrame(bytes.NewReader(raw[:len(raw)-3])); err == nil {
		t.Fatalf("truncated frame should fail")
	}
	bad := append([]byte("NOPE"), raw[len(Magic):]...)
	if _, err := ReadFrame(bytes.NewReader(bad)); !errors.Is(err, ErrFormat) {
		t.Fatalf("magic err = %v", err)
	}
}

func TestFingerprintStable(t *testing.T) {
	a, b := Fingerprint([]byte("x")), Fingerprint([]byte("x"))
	if a != b || len(a) != 16 || a == Fingerprint([]byte("y")) {
		t.Fatalf("fingerprints %s %s", a, b)
	}
}
