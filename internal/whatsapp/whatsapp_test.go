package whatsapp

import (
	"strings"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in, cc, want string
	}{
		{"091014583", "598", "59891014583"},
		{"091 014 583", "598", "59891014583"},
		{"+598 91 014 583", "598", "59891014583"},
		{"59891014583", "598", "59891014583"},
		{"", "598", ""},
	}
	for _, c := range cases {
		if got := NormalizePhone(c.in, c.cc); got != c.want {
			t.Errorf("NormalizePhone(%q, %q) = %q, want %q", c.in, c.cc, got, c.want)
		}
	}
}

func TestLink_EscapesMessage(t *testing.T) {
	link := Link("59891014583", "hola, ¿cómo estás?")
	if !strings.HasPrefix(link, "https://wa.me/59891014583?text=") {
		t.Fatalf("unexpected prefix: %s", link)
	}
	if strings.ContainsAny(strings.TrimPrefix(link, "https://wa.me/59891014583?text="), " ¿") {
		t.Fatalf("message not escaped: %s", link)
	}
}

func TestCancelMessage_ContainsFields(t *testing.T) {
	msg := CancelMessage("María", "13 de marzo del 2025", "10:00")
	for _, want := range []string{"María", "13 de marzo del 2025", "10:00"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}
