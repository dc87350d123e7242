package controllers

import (
	"context"
	"net/http"

	"github.com/pshiva123/Intelligent-Diagnosis-System/api/middleware"
	"github.com/pshiva123/Intelligent-Diagnosis-System/api/responses"
	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/patients"
	pkgerrors "github.com/pshiva123/Intelligent-Diagnosis-System/pkg/errors"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/logger"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/types"
)

// WorkspaceResolver hands out the patient's workspace.
type WorkspaceResolver interface {
	Workspace(ctx context.Context, session types.Session) (*patients.Workspace, error)
}

// workspaceFor resolves the calling patient's workspace, writing the error
// response itself when it cannot.
func workspaceFor(w http.ResponseWriter, r *http.Request, registry WorkspaceResolver, logg *logger.Logger) (*patients.Workspace, bool) {
	if registry == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "patient registry unavailable"))
		return nil, false
	}
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "patient session required"))
		return nil, false
	}
	ws, err := registry.Workspace(r.Context(), session)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	return ws, true
}
