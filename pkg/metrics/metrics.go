// Package metrics holds the prometheus collectors of the API
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "avatar_api",
		Name:      "auth_attempts_total",
		Help:      "Password login attempts by outcome",
	}, []string{"method", "result"})

	PINEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "avatar_api",
		Name:      "pin_events_total",
		Help:      "PIN lifecycle transitions (generated, verified, invalid, lockout, locked, expired)",
	}, []string{"event"})

	AvatarGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "avatar_api",
		Name:      "avatar_generations_total",
		Help:      "Avatar generation requests by provider and result",
	}, []string{"provider", "result"})

	AvatarGenerationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "avatar_api",
		Name:      "avatar_generation_seconds",
		Help:      "Time spent waiting on the generation backend",
		Buckets:   []float64{1, 5, 10, 20, 30, 60, 120, 300},
	}, []string{"provider"})

	UserImages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "avatar_api",
		Name:      "user_image_operations_total",
		Help:      "User image uploads, attachments and deletions",
	}, []string{"operation"})
)
