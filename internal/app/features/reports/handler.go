// internal/app/features/reports/handler.go
package reports

import (
	"net/http"
	"time"

	errorsfeature "github.com/dalemusser/usersvc/internal/app/features/errors"
	"github.com/dalemusser/usersvc/internal/app/system/authz"
	"go.uber.org/zap"
)

// Handler serves report downloads.
type Handler struct {
	Gen *Generator
	Log *zap.Logger

	// Now is the clock used for the current academic year.
	Now func() time.Time
}

// NewHandler constructs a reports Handler around gen.
func NewHandler(gen *Generator, logger *zap.Logger) *Handler {
	return &Handler{Gen: gen, Log: logger, Now: time.Now}
}

// ServeMembersWithoutImagesCSV handles GET /reports/members-without-images.csv.
// Only cc callers may download it.
func (h *Handler) ServeMembersWithoutImagesCSV(w http.ResponseWriter, r *http.Request) {
	if _, ok := authz.CallerCtx(r.Context()); !ok {
		errorsfeature.Render(w, http.StatusUnauthorized, "UNAUTHENTICATED", "not logged in")
		return
	}
	if !authz.IsCC(r.Context()) {
		errorsfeature.Render(w, http.StatusForbidden, "FORBIDDEN", "only cc can download reports")
		return
	}

	rows, err := h.Gen.MembersWithoutImages(r.Context(), h.Now().Year())
	if err != nil {
		h.Log.Error("members without images report failed", zap.Error(err))
		errorsfeature.Render(w, http.StatusInternalServerError, "INTERNAL", "report failed")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+MembersWithoutImagesFile+`"`)
	if err := WriteCSV(w, rows); err != nil {
		h.Log.Warn("write report", zap.Error(err))
	}
}
