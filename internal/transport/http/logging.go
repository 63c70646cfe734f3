package http

import (
	"encoding/json"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	requestBodyLogKey  = "http.request.body.summary"
	responseBodyLogKey = "http.response.body.summary"
	maxLoggedBody      = 2048
)

var redactedKeys = []string{"password", "token"}

type requestLogLine struct {
	Time      string `json:"time"`
	UserID    string `json:"user_id"`
	LatencyMS int64  `json:"latency_ms"`
	Method    string `json:"method"`
	URI       string `json:"uri"`
	Status    int    `json:"status"`
	Request   any    `json:"request_body,omitempty"`
	Response  any    `json:"response_body,omitempty"`
	Error     string `json:"error,omitempty"`
}

func registerLogging(e *echo.Echo) {
	skip := func(c echo.Context) bool {
		p := c.Path()
		return p == "/health" || strings.HasPrefix(p, "/swagger")
	}

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper:     skip,
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			line := requestLogLine{
				Time:      v.StartTime.UTC().Format(time.RFC3339),
				UserID:    "anonymous",
				LatencyMS: v.Latency.Milliseconds(),
				Method:    v.Method,
				URI:       v.URI,
				Status:    v.Status,
				Request:   c.Get(requestBodyLogKey),
				Response:  c.Get(responseBodyLogKey),
			}
			if user, ok := CurrentUser(c); ok {
				line.UserID = user.ID
			}
			if v.Error != nil {
				line.Error = v.Error.Error()
			}
			buf, err := json.Marshal(line)
			if err != nil {
				return err
			}
			log.Println(string(buf))
			return nil
		},
	}))

	e.Use(middleware.BodyDumpWithConfig(middleware.BodyDumpConfig{
		Skipper: skip,
		Handler: func(c echo.Context, reqBody, resBody []byte) {
			if summary := summarizeBody(reqBody, c.Request().Header.Get(echo.HeaderContentType)); summary != nil {
				c.Set(requestBodyLogKey, summary)
			}
			if summary := summarizeBody(resBody, c.Response().Header().Get(echo.HeaderContentType)); summary != nil {
				c.Set(responseBodyLogKey, summary)
			}
		},
	}))
}

// summarizeBody returns a loggable form of body with credentials redacted.
// Non-JSON payloads are reduced to a marker.
func summarizeBody(body []byte, contentType string) any {
	if len(body) == 0 {
		return nil
	}
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if strings.HasPrefix(ct, "multipart/") {
		return "multipart"
	}
	if !strings.HasPrefix(ct, echo.MIMEApplicationJSON) && !json.Valid(body) {
		if !utf8.Valid(body) {
			return "binary"
		}
		return "text"
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return "invalid json"
	}
	redacted := redact(data)
	buf, err := json.Marshal(redacted)
	if err != nil || len(buf) <= maxLoggedBody {
		return redacted
	}
	return map[string]any{"_truncated": true, "_bytes": len(buf)}
}

func redact(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			if isSecretKey(key) {
				out[key] = "redacted"
				continue
			}
			out[key] = redact(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = redact(item)
		}
		return out
	default:
		return v
	}
}

func isSecretKey(key string) bool {
	lower := strings.ToLower(key)
	for _, k := range redactedKeys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
