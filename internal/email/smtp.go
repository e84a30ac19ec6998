package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strconv"

	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/AlanPillo/Backend-App/internal/metrics"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	FromName string
	FromAddr string
}

// Send hands one HTML mail to the SMTP transport.
func (c *Config) Send(to, subject, body string) error {
	if to == "" {
		log.Error().Msg("[email] destinatario vacío")
		return fmt.Errorf("destinatario de e-mail vacío")
	}
	if c.Host == "" || c.FromAddr == "" {
		log.Error().Str("to", to).Msg("[email] SMTP host o remitente sin configurar")
		return fmt.Errorf("SMTP host o remitente sin configurar")
	}
	port := c.Port
	if port == 0 {
		port = 25
	}
	addr := fmt.Sprintf("%s:%d", c.Host, port)
	from := c.FromAddr
	if c.FromName != "" {
		from = fmt.Sprintf("%s <%s>", c.FromName, c.FromAddr)
	}
	var buf bytes.Buffer
	buf.WriteString("From: " + from + "\r\n")
	buf.WriteString("To: " + to + "\r\n")
	buf.WriteString("Subject: " + subject + "\r\n")
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	log.Info().Str("to", to).Str("subject", subject).Str("addr", addr).Msg("[email] enviando")
	if err := smtp.SendMail(addr, c.authForSend(), c.FromAddr, []string{to}, buf.Bytes()); err != nil {
		log.Error().Err(err).Str("to", to).Str("subject", subject).Msg("[email] falla al enviar")
		return err
	}
	log.Info().Str("to", to).Str("subject", subject).Msg("[email] enviado")
	return nil
}

// SendWithPNG sends an HTML mail with one PNG attachment (the WhatsApp QR).
func (c *Config) SendWithPNG(to, subject, body, imageName string, png []byte) error {
	if to == "" {
		return fmt.Errorf("destinatario de e-mail vacío")
	}
	if c.Host == "" || c.FromAddr == "" {
		return fmt.Errorf("SMTP host o remitente sin configurar")
	}
	port := c.Port
	if port == 0 {
		port = 25
	}
	addr := fmt.Sprintf("%s:%d", c.Host, port)
	from := c.FromAddr
	if c.FromName != "" {
		from = fmt.Sprintf("%s <%s>", c.FromName, c.FromAddr)
	}
	boundary := "boundary-citas-png"
	var buf bytes.Buffer
	buf.WriteString("From: " + from + "\r\n")
	buf.WriteString("To: " + to + "\r\n")
	buf.WriteString("Subject: " + subject + "\r\n")
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: multipart/mixed; boundary=" + boundary + "\r\n\r\n")
	buf.WriteString("--" + boundary + "\r\n")
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	buf.WriteString(body)
	buf.WriteString("\r\n--" + boundary + "\r\n")
	buf.WriteString("Content-Type: image/png; name=\"" + imageName + "\"\r\n")
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	buf.WriteString("Content-Disposition: attachment; filename=\"" + imageName + "\"\r\n\r\n")
	// RFC 2045: base64 body lines of at most 76 characters
	encoded := base64.StdEncoding.EncodeToString(png)
	const lineLen = 76
	for i := 0; i < len(encoded); i += lineLen {
		end := i + lineLen
		if end > len(encoded) {
			end = len(encoded)
		}
		buf.WriteString(encoded[i:end] + "\r\n")
	}
	buf.WriteString("\r\n--" + boundary + "--\r\n")
	log.Info().Str("to", to).Str("subject", subject).Msg("[email] enviando con adjunto")
	if err := smtp.SendMail(addr, c.authForSend(), c.FromAddr, []string{to}, buf.Bytes()); err != nil {
		log.Error().Err(err).Str("to", to).Str("subject", subject).Msg("[email] falla al enviar adjunto")
		return err
	}
	return nil
}

// authForSend returns nil when User is empty (e.g. MailHog), so no AUTH is sent.
func (c *Config) authForSend() smtp.Auth {
	if c.User != "" {
		return smtp.PlainAuth("", c.User, c.Pass, c.Host)
	}
	return nil
}

// sendCita renders one named template and dispatches it, attaching a QR of
// the WhatsApp link when it can be generated.
func (c *Config) sendCita(tipo, to, subject string, d CitaData) error {
	body, err := Render(tipo, d)
	if err != nil {
		metrics.NotificacionesFallidas.WithLabelValues(tipo).Inc()
		return err
	}
	if d.WALink != "" {
		if png, qrErr := qrcode.Encode(d.WALink, qrcode.Medium, 256); qrErr == nil {
			if err := c.SendWithPNG(to, subject, body, "whatsapp-qr.png", png); err != nil {
				metrics.NotificacionesFallidas.WithLabelValues(tipo).Inc()
				return err
			}
			metrics.NotificacionesEnviadas.WithLabelValues(tipo).Inc()
			return nil
		}
	}
	if err := c.Send(to, subject, body); err != nil {
		metrics.NotificacionesFallidas.WithLabelValues(tipo).Inc()
		return err
	}
	metrics.NotificacionesEnviadas.WithLabelValues(tipo).Inc()
	return nil
}

func (c *Config) SendCitaAgendada(to string, d CitaData) error {
	return c.sendCita("nueva_cita", to, "Cita agendada", d)
}

func (c *Config) SendCitaCancelada(to string, d CitaData) error {
	return c.sendCita("cancelacion", to, "Cita cancelada", d)
}

func (c *Config) SendRecordatorio(to string, d CitaData) error {
	return c.sendCita("recordatorio", to, "Recordatorio: Tienes una cita en 48 horas", d)
}

func (c *Config) SendRecordatorioPrueba(to string, d CitaData) error {
	return c.sendCita("recordatorio_prueba", to, "Recordatorio de Cita (Prueba)", d)
}

// LogConfigSummary logs the SMTP config (without the password) for diagnosis.
func (c *Config) LogConfigSummary() {
	auth := "no"
	if c.User != "" {
		auth = "sí (user=" + c.User + ")"
	}
	log.Info().Str("host", c.Host).Int("port", c.Port).Str("from", c.FromAddr).Str("auth", auth).Msg("[email] config SMTP")
	if c.Host == "" || c.FromAddr == "" {
		log.Warn().Msg("[email] host o from vacío; los envíos pueden fallar")
	}
}

func PortFromString(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
