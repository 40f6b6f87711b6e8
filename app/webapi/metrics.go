package webapi

import (
	"log"
	"net/http"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// metricsHandler handles GET /metrics request, renders counters in prometheus text format.
// Scrapes are not counted as api requests.
func (s *Server) metricsHandler(w http.ResponseWriter, _ *http.Request) {
	families := []*dto.MetricFamily{
		counterFamily("moderator_requests_total", "Total number of handled api requests.", s.Counter.Value()),
		counterFamily("moderator_spam_detected_total", "Total number of messages classified as spam.", s.spamDetected.Value()),
	}

	w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			log.Printf("[WARN] can't write metric %s: %v", mf.GetName(), err)
			return
		}
	}
}

func counterFamily(name, help string, val uint64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: proto.Float64(float64(val))}}},
	}
}
