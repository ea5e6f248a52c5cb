package logs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/caretap/caretap_backend/config"
)

// lokiWriter ships JSON log lines to a Loki push endpoint. One Write
// call is one log line; delivery is fire-and-forget.
type lokiWriter struct {
	endpoint string
	username string
	password string
	client   *http.Client
	stream   map[string]string
}

func newLokiHandler(cfg *config.Config, level slog.Level) slog.Handler {
	lw := &lokiWriter{
		endpoint: cfg.Logging.Output.Loki.Endpoint + "/loki/api/v1/push",
		username: cfg.Logging.Output.Loki.Username,
		password: cfg.Logging.Output.Loki.Password,
		client:   &http.Client{Timeout: 3 * time.Second},
		stream: map[string]string{
			"service": cfg.Observability.ServiceName,
			"env":     cfg.Server.Environment,
		},
	}
	return slog.NewJSONHandler(lw, &slog.HandlerOptions{Level: level})
}

type lokiPush struct {
	Streams []lokiStream `json:"streams"`
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

func (lw *lokiWriter) Write(p []byte) (int, error) {
	ts := fmt.Sprintf("%d", time.Now().UnixNano())
	line := string(bytes.TrimRight(p, "\n"))

	body, err := json.Marshal(lokiPush{
		Streams: []lokiStream{{
			Stream: lw.stream,
			Values: [][2]string{{ts, line}},
		}},
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest(http.MethodPost, lw.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if lw.username != "" {
		req.SetBasicAuth(lw.username, lw.password)
	}

	resp, err := lw.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return len(p), nil
}
