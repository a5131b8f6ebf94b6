// internal/app/features/reports/routes.go
package reports

import "github.com/go-chi/chi/v5"

// Routes returns the reports subrouter. Role gating is enforced inside the
// handlers.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/members-without-images.csv", h.ServeMembersWithoutImagesCSV)
	return r
}
