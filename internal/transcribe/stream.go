package transcribe

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultStreamingURL = "wss://streaming.assemblyai.com/v3/ws"

	// The streaming endpoint accepts chunks between 50ms and 1000ms of
	// 16kHz 16-bit mono audio.
	streamMinChunk = 1600  // 50ms
	streamMaxChunk = 30400 // 950ms
)

// StreamResult is one live caption update.
type StreamResult struct {
	Text    string
	IsFinal bool
}

// streamMessage covers the message types the streaming endpoint sends.
type streamMessage struct {
	Type       string `json:"type"`
	ID         string `json:"id,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Formatted  bool   `json:"turn_is_formatted,omitempty"`
}

// LiveSession streams raw PCM to the provider's realtime endpoint and
// emits caption updates while a memo is being recorded. It is a
// supplement to the asynchronous job flow, not a replacement: the
// recorded file still goes through the normal upload/poll pipeline.
type LiveSession struct {
	conn    *websocket.Conn
	results chan StreamResult

	mu       sync.Mutex
	fullText []string

	buffer   []byte
	bufferMu sync.Mutex

	stopSending chan struct{}
	wg          sync.WaitGroup
}

// NewLiveSession opens a realtime session. streamURL may be empty to use
// the provider default.
func NewLiveSession(streamURL, apiKey string, sampleRate int) (*LiveSession, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("streaming API key is required")
	}
	if streamURL == "" {
		streamURL = defaultStreamingURL
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}

	url := fmt.Sprintf("%s?sample_rate=%d&format_turns=true", streamURL, sampleRate)
	header := http.Header{}
	header.Add("Authorization", apiKey)

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to streaming endpoint: %w", err)
	}

	s := &LiveSession{
		conn:        conn,
		results:     make(chan StreamResult, 100),
		buffer:      make([]byte, 0, streamMaxChunk),
		stopSending: make(chan struct{}),
	}

	go s.readResults()

	s.wg.Add(1)
	go s.sendLoop()

	return s, nil
}

// Feed copies PCM from r into the session until r is exhausted. Intended
// to be pointed at the recorder's PCM tee output.
func (s *LiveSession) Feed(r io.Reader) error {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			s.bufferMu.Lock()
			s.buffer = append(s.buffer, buf[:n]...)
			s.bufferMu.Unlock()
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read pcm: %w", err)
		}
	}
}

// sendLoop flushes buffered audio every 50ms in chunks the endpoint
// accepts.
func (s *LiveSession) sendLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.flushBuffer()
		case <-s.stopSending:
			s.flushBuffer()
			return
		}
	}
}

func (s *LiveSession) flushBuffer() {
	s.bufferMu.Lock()
	defer s.bufferMu.Unlock()

	for len(s.buffer) >= streamMinChunk {
		chunkSize := len(s.buffer)
		if chunkSize > streamMaxChunk {
			chunkSize = streamMaxChunk
		}
		if err := s.conn.WriteMessage(websocket.BinaryMessage, s.buffer[:chunkSize]); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Failed to send audio chunk: %v", err)
			}
			s.buffer = s.buffer[:0]
			return
		}
		s.buffer = s.buffer[chunkSize:]
	}
}

func (s *LiveSession) readResults() {
	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Streaming session error: %v", err)
			}
			close(s.results)
			return
		}

		var msg streamMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Failed to parse streaming message: %v", err)
			continue
		}

		switch msg.Type {
		case "Begin":
			log.Printf("Streaming session started: %s", msg.ID)
		case "Turn":
			if msg.Transcript == "" {
				continue
			}
			if msg.Formatted {
				s.mu.Lock()
				s.fullText = append(s.fullText, msg.Transcript)
				s.mu.Unlock()
			}
			s.results <- StreamResult{Text: msg.Transcript, IsFinal: msg.Formatted}
		case "Termination":
			log.Printf("Streaming session terminated")
		}
	}
}

// Results returns the caption update channel. It closes when the session
// ends.
func (s *LiveSession) Results() <-chan StreamResult {
	return s.results
}

// Transcript returns the accumulated final captions.
func (s *LiveSession) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := ""
	for i, t := range s.fullText {
		if i > 0 {
			out += " "
		}
		out += t
	}
	return out
}

// Close flushes remaining audio, asks the endpoint to terminate, and
// closes the connection.
func (s *LiveSession) Close() error {
	close(s.stopSending)
	s.wg.Wait()

	s.bufferMu.Lock()
	if len(s.buffer) > 0 {
		_ = s.conn.WriteMessage(websocket.BinaryMessage, s.buffer)
		s.buffer = s.buffer[:0]
	}
	s.bufferMu.Unlock()

	if msg, err := json.Marshal(streamMessage{Type: "Terminate"}); err == nil {
		_ = s.conn.WriteMessage(websocket.TextMessage, msg)
		time.Sleep(500 * time.Millisecond)
	}

	return s.conn.Close()
}
