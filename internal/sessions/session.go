package sessions

import "time"

// Login flow steps for the OTP variant.
const (
	StepEmail = "email"
	StepOTP   = "otp"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Message  string `bson:"message" json:"message"`
	Category string `bson:"category" json:"category"` // success | info | danger
}

// Session is per-browser server-side state. The browser only holds the opaque
// SID (inside a signed cookie); everything else lives in the store.
// Email is set only after a successful OTP verification or password login;
// PendingEmail tracks the address an OTP is in flight for. Keeping them apart
// means a half-finished OTP flow never counts as authenticated.
type Session struct {
	SID          string    `bson:"sid" json:"sid"`
	Email        string    `bson:"email,omitempty" json:"email,omitempty"`
	PendingEmail string    `bson:"pendingEmail,omitempty" json:"pendingEmail,omitempty"`
	Step         string    `bson:"step,omitempty" json:"step,omitempty"`
	OTP          string    `bson:"otp,omitempty" json:"otp,omitempty"`
	OTPIssuedAt  time.Time `bson:"otpIssuedAt,omitempty" json:"otpIssuedAt,omitempty"`
	OTPAttempts  int       `bson:"otpAttempts,omitempty" json:"otpAttempts,omitempty"`
	Verified     bool      `bson:"verified,omitempty" json:"verified,omitempty"`
	Flashes      []Flash   `bson:"flashes,omitempty" json:"flashes,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	ExpiresAt    time.Time `bson:"expiresAt" json:"expiresAt"`
}

// SetOTP records a freshly issued code and resets the attempt counter.
func (s *Session) SetOTP(code string) {
	s.OTP = code
	s.OTPIssuedAt = time.Now().UTC()
	s.OTPAttempts = 0
	s.Step = StepOTP
}

// OTPExpired reports whether the pending code is older than ttl.
func (s *Session) OTPExpired(ttl time.Duration) bool {
	if s.OTP == "" || s.OTPIssuedAt.IsZero() {
		return true
	}
	return time.Now().UTC().After(s.OTPIssuedAt.Add(ttl))
}

// AddFlash queues a one-shot message.
func (s *Session) AddFlash(message, category string) {
	s.Flashes = append(s.Flashes, Flash{Message: message, Category: category})
}

// PopFlashes returns queued messages and clears them.
func (s *Session) PopFlashes() []Flash {
	f := s.Flashes
	s.Flashes = nil
	return f
}
