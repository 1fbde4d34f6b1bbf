package notify

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// StreamSource reads a text/event-stream from the upstream.
type StreamSource struct {
	url        string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewStreamSource(url, token string, logger *zap.Logger) *StreamSource {
	return &StreamSource{
		url:        url,
		token:      token,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

func (s *StreamSource) Stream(ctx context.Context, emit func(Event)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("building stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connecting to notification stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notification stream returned %d", resp.StatusCode)
	}
	s.logger.Info("notification stream connected", zap.String("url", s.url))

	if err := ReadEvents(resp.Body, emit); err != nil {
		return err
	}
	return io.ErrUnexpectedEOF
}

// ReadEvents parses server-sent events from r and emits each dispatched
// event. Events without a type are reported as "message".
func ReadEvents(r io.Reader, emit func(Event)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		eventType string
		id        string
		data      []string
	)
	dispatch := func() {
		if len(data) == 0 {
			eventType = ""
			return
		}
		if eventType == "" {
			eventType = "message"
		}
		emit(Event{Type: eventType, ID: id, Data: payload(strings.Join(data, "\n"))})
		eventType, data = "", nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			dispatch()
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			eventType = value
		case "data":
			data = append(data, value)
		case "id":
			id = value
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading notification stream: %w", err)
	}
	dispatch()
	return nil
}

// payload keeps JSON data as is and quotes anything else.
func payload(s string) json.RawMessage {
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	quoted, _ := json.Marshal(s)
	return quoted
}
