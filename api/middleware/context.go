package middleware

import (
	"context"

	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/types"
)

type contextKey string

const ctxSession contextKey = "patient_session"

// SessionFromContext returns the patient session attached by PatientSession.
func SessionFromContext(ctx context.Context) (types.Session, bool) {
	if ctx == nil {
		return types.Session{}, false
	}
	session, ok := ctx.Value(ctxSession).(types.Session)
	return session, ok && session.Valid()
}

// WithSession injects the patient session into the context.
func WithSession(ctx context.Context, session types.Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSession, session)
}
