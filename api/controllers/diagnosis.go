package controllers

import (
	"net/http"

	"github.com/pshiva123/Intelligent-Diagnosis-System/api/responses"
	"github.com/pshiva123/Intelligent-Diagnosis-System/api/validators"
	pkgerrors "github.com/pshiva123/Intelligent-Diagnosis-System/pkg/errors"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/logger"
)

type diagnosisRequest struct {
	Text string `json:"text" validate:"required"`
}

// DiagnosisSubmit sends symptom text to the prediction service.
func DiagnosisSubmit(registry WorkspaceResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspaceFor(w, r, registry, logg)
		if !ok {
			return
		}

		var payload diagnosisRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := ws.Diagnose(r.Context(), payload.Text)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// DiagnosisLatest returns the last successful diagnosis.
func DiagnosisLatest(registry WorkspaceResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspaceFor(w, r, registry, logg)
		if !ok {
			return
		}
		result, found := ws.LatestDiagnosis()
		if !found {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no diagnosis yet"))
			return
		}
		responses.WriteSuccess(w, result)
	}
}
