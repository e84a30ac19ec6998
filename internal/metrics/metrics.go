package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citas_http_requests_total",
		Help: "HTTP requests by method and status code.",
	}, []string{"method", "code"})

	CitasCreadas = promauto.NewCounter(prometheus.CounterOpts{
		Name: "citas_creadas_total",
		Help: "Appointments created.",
	})

	NotificacionesEnviadas = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citas_notificaciones_enviadas_total",
		Help: "Emails handed to the SMTP transport, by template.",
	}, []string{"tipo"})

	NotificacionesFallidas = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citas_notificaciones_fallidas_total",
		Help: "Email dispatch failures, by template. Failures never fail the request.",
	}, []string{"tipo"})

	RecordatoriosEnviados = promauto.NewCounter(prometheus.CounterOpts{
		Name: "citas_recordatorios_enviados_total",
		Help: "Reminder emails sent by the daily sweep.",
	})
)
