package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/usersvc/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger is the directory reachability check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client    *mongo.Client
	Directory Pinger
	Log       *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client, the
// directory client and logger. dir may be nil.
func NewHandler(client *mongo.Client, dir Pinger, logger *zap.Logger) *Handler {
	return &Handler{
		Client:    client,
		Directory: dir,
		Log:       logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Directory string `json:"directory,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "directory":"reachable" }
//
// On DB failure: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable", "error":"…" }
//
// An unreachable directory reports "status":"degraded" with 200; reads of
// stored metadata still work without it.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if h.Directory != nil {
		if err := h.Directory.Ping(ctx); err != nil {
			h.Log.Warn("health-check: directory ping failed", zap.Error(err))
			resp.Status = "degraded"
			resp.Directory = "unreachable"
			resp.Message = "Directory unavailable"
			resp.Error = err.Error()
		} else {
			resp.Directory = "reachable"
		}
	}

	_ = json.NewEncoder(w).Encode(resp)
}
