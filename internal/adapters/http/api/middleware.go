package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/waiverintel/pkg/metrics"
)

// instrument records request count and latency under the route pattern the
// mux matched, so /passes/L1/6 and /passes/L2/7 share one series. Error
// responses are also counted by the code handed to writeError.
func instrument(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		route := r.Pattern
		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(route, r.Method, status)
		metrics.RecordHTTPRequestDuration(route, r.Method, status, float64(time.Since(start).Microseconds())/1000)
		if rec.errCode != "" {
			metrics.RecordErrorByComponent("http", rec.errCode)
		}
	})
}

// statusRecorder captures the status and, for error bodies, the API error
// code of a response.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	errCode string
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

// noteError tags w with an API error code when it is instrumented.
func noteError(w http.ResponseWriter, code string) {
	if rec, ok := w.(*statusRecorder); ok {
		rec.errCode = code
	}
}
