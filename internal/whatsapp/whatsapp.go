package whatsapp

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizePhone strips formatting from a phone number and replaces a leading
// "0" with the country code prefix (e.g. "091014583" + "598" → "59891014583").
// A number already carrying the country code is returned digits-only.
func NormalizePhone(phone, countryCode string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, "0") {
		return countryCode + digits[1:]
	}
	return digits
}

// Link builds a wa.me deep-link that opens a chat with phone and pre-fills message.
func Link(phone, message string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", phone, url.QueryEscape(message))
}

// CancelMessage is the pre-filled text the patient sends to ask for a change
// or cancellation.
func CancelMessage(nombre, fechaFormateada, hora string) string {
	return fmt.Sprintf("Hola, buenas. Soy %s, desafortunadamente no puedo asistir a mi cita programada para el %s a las %s.", nombre, fechaFormateada, hora)
}

// TestReminderMessage is the pre-filled text used by the TEST_MODE reminder.
func TestReminderMessage(nombre, fechaFormateada, hora string) string {
	return fmt.Sprintf("Hola, buenas. Soy %s, este es un recordatorio de prueba para mi cita programada para el %s a las %s.", nombre, fechaFormateada, hora)
}
