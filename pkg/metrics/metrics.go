package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	OTPSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "wtwinds", Name: "otp_sent_total", Help: "Number of OTP emails sent by outcome."},
		[]string{"outcome"}, // delivered | failed
	)
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "wtwinds", Name: "login_attempts_total", Help: "Number of login attempts by mode and outcome."},
		[]string{"mode", "outcome"},
	)
	PostsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "wtwinds", Name: "posts_created_total", Help: "Number of posts created."},
	)
	LikesToggled = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "wtwinds", Name: "likes_toggled_total", Help: "Number of like toggles by direction."},
		[]string{"direction"}, // like | unlike
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "wtwinds", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "wtwinds", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(OTPSent)
	reg.MustRegister(LoginAttempts)
	reg.MustRegister(PostsCreated)
	reg.MustRegister(LikesToggled)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
