package iron_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/route-tour/pkg/iron"
)

const password = "longrandomvalue32charactersrequired"

func TestNew_ShortPassword(t *testing.T) {
	if _, err := iron.New("short"); !errors.Is(err, iron.ErrPasswordTooShort) {
		t.Errorf("New() error = %v, want %v", err, iron.ErrPasswordTooShort)
	}
}

func TestSealUnseal_RoundTrip(t *testing.T) {
	s, err := iron.New(password, iron.WithTTL(time.Hour))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	sealed, err := s.Seal(map[string]string{"name": "tony"})
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	if !strings.HasPrefix(sealed, iron.MacPrefix+"**") {
		t.Errorf("sealed = %q, want prefix %q", sealed, iron.MacPrefix+"**")
	}
	if n := strings.Count(sealed, "*"); n != 7 {
		t.Errorf("separator count = %d, want 7", n)
	}

	var got map[string]string
	if err := s.Unseal(sealed, &got); err != nil {
		t.Fatalf("Unseal() error = %v", err)
	}
	if got["name"] != "tony" {
		t.Errorf("name = %q, want %q", got["name"], "tony")
	}
}

func TestSeal_Unique(t *testing.T) {
	s, _ := iron.New(password)
	a, _ := s.Seal("value")
	b, _ := s.Seal("value")
	if a == b {
		t.Error("two seals of the same value are identical")
	}
}

func TestUnseal_Tampered(t *testing.T) {
	s, _ := iron.New(password)
	sealed, err := s.Seal("refreshedValue")
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	parts := strings.Split(sealed, "*")
	parts[4] = "A" + parts[4][1:]
	if parts[4] == strings.Split(sealed, "*")[4] {
		parts[4] = "B" + parts[4][1:]
	}

	var v string
	if err := s.Unseal(strings.Join(parts, "*"), &v); !errors.Is(err, iron.ErrBadHMAC) {
		t.Errorf("Unseal(tampered) error = %v, want %v", err, iron.ErrBadHMAC)
	}
}

func TestUnseal_WrongPassword(t *testing.T) {
	a, _ := iron.New(password)
	b, _ := iron.New(strings.Repeat("x", 32))

	sealed, _ := a.Seal("value")

	var v string
	if err := b.Unseal(sealed, &v); !errors.Is(err, iron.ErrBadHMAC) {
		t.Errorf("Unseal() error = %v, want %v", err, iron.ErrBadHMAC)
	}
}

func TestUnseal_Expired(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }

	s, _ := iron.New(password, iron.WithTTL(time.Minute), iron.WithClock(clock))
	sealed, err := s.Seal("value")
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	now = now.Add(2 * time.Minute)

	var v string
	if err := s.Unseal(sealed, &v); !errors.Is(err, iron.ErrExpired) {
		t.Errorf("Unseal() error = %v, want %v", err, iron.ErrExpired)
	}
}

func TestUnseal_Malformed(t *testing.T) {
	s, _ := iron.New(password)

	var v string
	tests := []struct {
		name   string
		sealed string
		want   error
	}{
		{"too few parts", "Fe26.2**a*b", iron.ErrMalformed},
		{"wrong prefix", "Fe26.1**a*b*c**d*e", iron.ErrPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Unseal(tt.sealed, &v); !errors.Is(err, tt.want) {
				t.Errorf("Unseal() error = %v, want %v", err, tt.want)
			}
		})
	}
}
