package utils

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Counter: общее количество HTTP запросов
	ReqCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Histogram: время выполнения запросов
	ReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "app_request_duration_seconds",
			Help: "Request duration seconds",
		},
		[]string{"method", "path"},
	)

	// Counter: количество ошибок
	ErrorCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_errors_total",
			Help: "Total app errors",
		},
		[]string{"handler", "type"},
	)

	// Доменные метрики
	GoalsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "app_goals_completed_total",
			Help: "Goals that reached 100 percent progress",
		},
	)

	PointsAwarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "app_points_awarded_total",
			Help: "Reward points credited to users",
		},
	)

	BadgesAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_badges_awarded_total",
			Help: "Badges earned by users",
		},
		[]string{"tier"},
	)
)

func InitMetrics() {
	prometheus.MustRegister(
		ReqCount,
		ReqDuration,
		ErrorCount,
		GoalsCompleted,
		PointsAwarded,
		BadgesAwarded,
	)
}
