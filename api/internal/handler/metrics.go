package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "api_registrations_total",
		Help: "Total number of successful profile registrations.",
	})

	refreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "api_token_refreshes_total",
		Help: "Total number of successful token refreshes.",
	})

	tokenVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_token_verifications_total",
			Help: "Total number of token verification attempts by status.",
		},
		[]string{"status"},
	)

	ideasSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "api_ideas_submitted_total",
		Help: "Total number of submitted startup ideas.",
	})

	sessionsStartedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_sessions_started_total",
			Help: "Total number of session generation tasks published, by persona.",
		},
		[]string{"persona"},
	)

	legacySessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_legacy_sessions_total",
			Help: "Total number of synchronous legacy /session requests by submission kind.",
		},
		[]string{"kind"},
	)

	upgradesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "api_subscription_upgrades_total",
		Help: "Total number of simulated subscription upgrades.",
	})

	certificatesMintedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "api_certificates_minted_total",
		Help: "Total number of simulated NFT certificates minted.",
	})
)
