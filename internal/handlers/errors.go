package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/cis-membership/internal/models"
	pkghttp "github.com/BradenHooton/cis-membership/pkg/http"
	"github.com/go-chi/chi/v5/middleware"
)

const genericServerError = "Internal server error"

// writeUnexpected handles errors a handler has no specific mapping for.
// Timeouts become 504; anything else is logged and reported as 500.
func writeUnexpected(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	if errors.Is(err, models.ErrTimeout) {
		logger.Warn(op+" timed out",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err))
		pkghttp.WriteGatewayTimeout(w, "The request timed out. Please try again.")
		return
	}

	if errors.Is(err, models.ErrBadRequest) {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	logger.Error(op+" failed",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Any("error", err))
	pkghttp.WriteInternalError(w, genericServerError)
}
