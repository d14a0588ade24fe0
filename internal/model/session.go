package model

// SessionEndReason tells listeners why a session ended.
type SessionEndReason string

const (
	// ReasonLogout is an explicit logout requested by the user.
	ReasonLogout SessionEndReason = "logout"
	// ReasonExpired means the credential could not be refreshed.
	ReasonExpired SessionEndReason = "expired"
)

// SessionListener is notified when the session ends, so it can drop any
// data derived from the authenticated principal.
type SessionListener interface {
	SessionEnded(reason SessionEndReason)
}

// SessionListenerFunc adapts a function to SessionListener.
type SessionListenerFunc func(reason SessionEndReason)

// SessionEnded calls f(reason).
func (f SessionListenerFunc) SessionEnded(reason SessionEndReason) {
	f(reason)
}
