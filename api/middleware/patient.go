package middleware

import (
	"net/http"

	"github.com/pshiva123/Intelligent-Diagnosis-System/api/responses"
	"github.com/pshiva123/Intelligent-Diagnosis-System/api/validators"
	pkgerrors "github.com/pshiva123/Intelligent-Diagnosis-System/pkg/errors"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/logger"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/types"
)

const (
	// PatientHeader carries the username the patient claimed on the login screen.
	PatientHeader = "X-Patient-Name"

	maxUsernameLength = 64
)

// PatientSession builds the patient session from the claimed username header.
// The claim is trusted as-is.
func PatientSession(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username := validators.SanitizeString(r.Header.Get(PatientHeader), maxUsernameLength)
			session := types.NewSession(username)
			if !session.Valid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, PatientHeader+" header required"))
				return
			}

			ctx := WithSession(r.Context(), session)
			if logg != nil {
				ctx = logg.WithUsername(ctx, session.Username)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
