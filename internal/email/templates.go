package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// CitaData is the payload every appointment mail template renders from.
type CitaData struct {
	PacienteNombre  string
	FechaFormateada string
	Hora            string
	WALink          string
	Profesional     string
	Motivo          string
}

var meses = [...]string{
	"enero", "febrero", "marzo", "abril",
	"mayo", "junio", "julio", "agosto",
	"septiembre", "octubre", "noviembre", "diciembre",
}

// FormatearFecha renders a date as "13 de marzo del 2025".
func FormatearFecha(t time.Time) string {
	return fmt.Sprintf("%d de %s del %d", t.Day(), meses[t.Month()-1], t.Year())
}

// Shared CSS for every appointment mail.
const sharedStyle = `
    body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #f0f2f5; color: #333; margin: 0; padding: 0; }
    .container { max-width: 600px; margin: 40px auto; background-color: #fff; border-radius: 8px; box-shadow: 0 2px 8px rgba(0,0,0,0.1); padding: 20px; }
    .header { text-align: center; padding-bottom: 20px; border-bottom: 1px solid #eee; }
    .header h2 { margin: 0; color: #1976d2; }
    .content { padding: 20px 0; }
    .content p { margin: 10px 0; font-size: 16px; }
    .footer { text-align: center; padding-top: 20px; border-top: 1px solid #eee; font-size: 14px; color: #777; }
    .btn-wa { display: inline-block; background-color: #25D366; color: #fff; padding: 12px 24px; margin-top: 20px; text-decoration: none; border-radius: 4px; font-weight: bold; }
`

const tplNuevaCita = `<!DOCTYPE html>
<html lang="es">
<head><meta charset="UTF-8" /><style>` + sharedStyle + `</style></head>
<body>
  <div class="container">
    <div class="header"><h2>Cita agendada</h2></div>
    <div class="content">
      <p><strong>Paciente:</strong> {{.PacienteNombre}}</p>
      <p><strong>Fecha:</strong> {{.FechaFormateada}}</p>
      <p><strong>Hora:</strong> {{.Hora}} hrs</p>
      {{if .Profesional}}<p><strong>Profesional:</strong> {{.Profesional}}</p>{{end}}
    </div>
    <div class="footer">
      <p>Si tienes algún inconveniente, comunícate vía WhatsApp:</p>
      <a href="{{.WALink}}" class="btn-wa">Contactar WhatsApp</a>
    </div>
  </div>
</body>
</html>`

const tplCancelacion = `<!DOCTYPE html>
<html lang="es">
<head><meta charset="UTF-8" /><style>` + sharedStyle + `</style></head>
<body>
  <div class="container">
    <div class="header"><h2>Cita cancelada</h2></div>
    <div class="content">
      <p>Hola <strong>{{.PacienteNombre}}</strong>,</p>
      <p>Tu cita del {{.FechaFormateada}} a las {{.Hora}} hrs fue cancelada.</p>
      <p><strong>Motivo:</strong> {{.Motivo}}</p>
      <p>Si deseas reagendar, comunícate vía WhatsApp:</p>
    </div>
    <div class="footer">
      <a href="{{.WALink}}" class="btn-wa">Contactar WhatsApp</a>
    </div>
  </div>
</body>
</html>`

const tplRecordatorio = `<!DOCTYPE html>
<html lang="es">
<head><meta charset="UTF-8" /><style>` + sharedStyle + `</style></head>
<body>
  <div class="container">
    <div class="header"><h2>Recordatorio de Cita</h2></div>
    <div class="content">
      <p>Hola <strong>{{.PacienteNombre}}</strong>,</p>
      <p>Este es un recordatorio de que tienes una cita programada.</p>
      <p><strong>Fecha:</strong> {{.FechaFormateada}}</p>
      <p><strong>Hora:</strong> {{.Hora}} hrs</p>
      <p>Si tienes algún inconveniente, por favor contacta vía WhatsApp haciendo clic en el botón de abajo:</p>
      <div style="text-align: center;"><a href="{{.WALink}}" class="btn-wa">Contactar WhatsApp</a></div>
    </div>
    <div class="footer"><p>Gracias por confiar en nosotros.</p></div>
  </div>
</body>
</html>`

const tplRecordatorioPrueba = `<!DOCTYPE html>
<html lang="es">
<head><meta charset="UTF-8" /><style>` + sharedStyle + `</style></head>
<body>
  <div class="container">
    <div class="header"><h2>Recordatorio de Cita (Prueba)</h2></div>
    <div class="content">
      <p>Hola <strong>{{.PacienteNombre}}</strong>,</p>
      <p>Este es un recordatorio de prueba para tu cita programada para el {{.FechaFormateada}} a las {{.Hora}}.</p>
      <p>Si tienes algún inconveniente, comunícate vía WhatsApp:</p>
    </div>
    <div class="footer"><a href="{{.WALink}}" class="btn-wa">Contactar WhatsApp</a></div>
  </div>
</body>
</html>`

var citaTemplates = func() *template.Template {
	t := template.New("citas")
	for name, body := range map[string]string{
		"nueva_cita":          tplNuevaCita,
		"cancelacion":         tplCancelacion,
		"recordatorio":        tplRecordatorio,
		"recordatorio_prueba": tplRecordatorioPrueba,
	} {
		template.Must(t.New(name).Parse(body))
	}
	return t
}()

// Render executes one of the named appointment templates with the payload.
func Render(name string, d CitaData) (string, error) {
	var b bytes.Buffer
	if err := citaTemplates.ExecuteTemplate(&b, name, d); err != nil {
		return "", err
	}
	return b.String(), nil
}
