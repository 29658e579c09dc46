package cookies

import (
	"errors"
	"testing"
	"time"

	"github.com/warpdl/warpcookie/pkg/logger"
)

const safariFixture = "cook\x00\x00\x00\x01\x00\x00\x00i\x00\x00\x01\x00\x01\x00\x00\x00\x10\x00\x00\x00\x00\x00\x00\x00Y" +
	"\x00\x00\x00\x00\x00\x00\x00 \x00\x00\x00\x00\x00\x00\x008\x00\x00\x00B\x00\x00\x00F\x00\x00\x00H" +
	"\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x80\x03\xa5>\xc3A\x00\x00\x80\xc3\x07:\xc3A" +
	"localhost\x00foo\x00/\x00test%20%3Bcookie\x00\x00\x00\x054\x07\x17 \x05\x00\x00\x00Kbplist00\xd1\x01" +
	"\x02_\x10\x18NSHTTPCookieAcceptPolicy\x10\x02\x08\x0b&\x00\x00\x00\x00\x00\x00\x01\x01\x00\x00\x00" +
	"\x00\x00\x00\x00\x03\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00("

func TestParseSafariCookies(t *testing.T) {
	jar, err := ParseSafariCookies([]byte(safariFixture), nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jar.Len() != 1 {
		t.Fatalf("expected 1 cookie, got %d", jar.Len())
	}
	c := jar.Cookies()[0]
	if c.Domain != "localhost" || c.Name != "foo" || c.Path != "/" || c.Value != "test%20%3Bcookie" {
		t.Errorf("unexpected cookie %s=%s for %s%s", c.Name, c.Value, c.Domain, c.Path)
	}
	if c.Secure {
		t.Error("expected insecure cookie")
	}
	want := time.Date(2021, 6, 18, 21, 39, 19, 0, time.UTC)
	if !c.Expires.Equal(want) {
		t.Errorf("expires = %v, want %v", c.Expires.UTC(), want)
	}
}

func TestParseSafariCookiesIntoExistingJar(t *testing.T) {
	jar, err := ParseSafariCookies([]byte(safariFixture), nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	again, err := ParseSafariCookies([]byte(safariFixture), jar, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if again != jar || jar.Len() != 1 {
		t.Errorf("expected the same jar with 1 cookie, got %d", again.Len())
	}
}

func TestParseSafariCookiesProgress(t *testing.T) {
	p := &recordingProgress{}
	if _, err := ParseSafariCookies([]byte(safariFixture), nil, nil, p); err != nil {
		t.Fatal(err)
	}
	if len(p.starts) != 1 || p.starts[0] != "Loading cookie/1" {
		t.Errorf("starts = %v", p.starts)
	}
	if p.increments != 1 || p.done != 1 {
		t.Errorf("increments = %d, done = %d", p.increments, p.done)
	}
}

func TestParseSafariCookiesErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad signature", "kooc\x00\x00\x00\x00"},
		{"truncated header", "cook\x00\x00\x00\x02\x00\x00"},
		{"page larger than file", "cook\x00\x00\x00\x01\x00\x00\x10\x00"},
		{"bad page signature", "cook\x00\x00\x00\x01\x00\x00\x00\x08\x00\x00\x00\x00\x00\x00\x00\x00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSafariCookies([]byte(tt.data), nil, nil, nil)
			if !errors.Is(err, ErrParser) {
				t.Fatalf("expected ErrParser, got %v", err)
			}
		})
	}
}

func TestParseSafariCookiesInvalidUTF8(t *testing.T) {
	data := []byte(safariFixture)
	// corrupt the first byte of "localhost": file header, page header, domain offset
	data[12+16+0x38] = 0xff

	log := logger.NewMockLogger()
	jar, err := ParseSafariCookies(data, nil, log, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jar.Len() != 0 {
		t.Errorf("expected the record to be skipped, got %d cookies", jar.Len())
	}
	if len(log.WarningCalls) != 1 {
		t.Errorf("expected one warning, got %v", log.WarningCalls)
	}
}

func TestMacAbsoluteTimeToTime(t *testing.T) {
	if got := macAbsoluteTimeToTime(0); !got.Equal(time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("macAbsoluteTimeToTime(0) = %v", got.UTC())
	}
	if got := macAbsoluteTimeToTime(0.9); got.Unix() != macEpochOffset {
		t.Errorf("fractional seconds should be truncated, got %d", got.Unix())
	}
}
