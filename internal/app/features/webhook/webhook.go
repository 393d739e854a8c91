// internal/app/features/webhook/webhook.go
package webhook

import (
	"io"
	"net/http"

	trafficstore "github.com/dalemusser/stratalaw/internal/app/store/traffic"
	"github.com/dalemusser/stratalaw/internal/app/system/apicors"
	"github.com/dalemusser/stratalaw/internal/app/system/auth"
	"github.com/dalemusser/stratalaw/internal/app/system/jsonutil"
	"github.com/dalemusser/stratalaw/internal/app/system/traffic"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxBody caps how much of a delivery is read and logged.
const maxBody = 1 << 20

// Handler receives inbound webhook deliveries.
type Handler struct {
	logger *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{logger: logger}
}

// Routes mounts POST / behind permissive CORS. When key is non-empty the
// caller must send it as a Bearer token.
func Routes(h *Handler, key string, recorder *traffic.Recorder) chi.Router {
	r := chi.NewRouter()
	r.Use(apicors.Middleware())
	r.Use(auth.BearerKey(key, h.logger))
	r.Use(traffic.Middleware(recorder, trafficstore.EndpointWebhook))
	r.Post("/", h.receive)
	return r
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
	if err != nil {
		jsonutil.BadRequest(w, "could not read body")
		return
	}
	if len(body) > maxBody {
		jsonutil.Error(w, http.StatusRequestEntityTooLarge, "body too large")
		return
	}

	h.logger.Info("webhook received",
		zap.String("content_type", r.Header.Get("Content-Type")),
		zap.Int("bytes", len(body)),
		zap.ByteString("body", body))

	jsonutil.OK(w, map[string]bool{"success": true})
}
