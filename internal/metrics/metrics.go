package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recipes_vault"

// Metrics владеет реестром Prometheus приложения.
type Metrics struct {
	registry       *prometheus.Registry
	httpDuration   *prometheus.HistogramVec
	listsGenerated prometheus.Counter
	itemsGenerated prometheus.Counter
	emails         *prometheus.CounterVec
	warmups        *prometheus.CounterVec
}

// New создает реестр с метриками процесса, HTTP и предметной области.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		listsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shopping_lists_generated_total",
			Help:      "Shopping lists generated from meal plans.",
		}),
		itemsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shopping_list_items_generated_total",
			Help:      "Aggregated items written to generated shopping lists.",
		}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "newsletter_emails_total",
			Help:      "Newsletter emails by kind and delivery result.",
		}, []string{"kind", "result"}),
		warmups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_warmup_total",
			Help:      "Database keep-alive pings by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpDuration,
		m.listsGenerated,
		m.itemsGenerated,
		m.emails,
		m.warmups,
	)

	return m
}

// Registry возвращает реестр метрик.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler отдает метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware измеряет длительность запросов. Метка route берется из шаблона маршрута echo.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				status = httpErr.Code
			} else if err != nil && !c.Response().Committed {
				status = http.StatusInternalServerError
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			m.httpDuration.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// ShoppingListGenerated учитывает созданный список покупок.
func (m *Metrics) ShoppingListGenerated(items int) {
	m.listsGenerated.Inc()
	m.itemsGenerated.Add(float64(items))
}

// EmailSent учитывает попытку доставки письма.
func (m *Metrics) EmailSent(kind string, err error) {
	m.emails.WithLabelValues(kind, result(err)).Inc()
}

// WarmupObserved учитывает результат пинга базы.
func (m *Metrics) WarmupObserved(err error) {
	m.warmups.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
