package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"clipforge/internal/logging"
)

const (
	edgeWSSURL   = "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1"
	edgeToken    = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"
	outputFormat = "audio-24khz-48kbitrate-mono-mp3"
)

// EdgeSynthesizer speaks text through the free Edge read-aloud service.
// Audio arrives as binary websocket frames, word timings as metadata
// frames interleaved with them.
type EdgeSynthesizer struct {
	wssURL string
	dialer *websocket.Dialer
}

// NewEdgeSynthesizer builds the default synthesizer.
func NewEdgeSynthesizer() *EdgeSynthesizer {
	return &EdgeSynthesizer{
		wssURL: edgeWSSURL,
		dialer: &websocket.Dialer{HandshakeTimeout: 30 * time.Second},
	}
}

type edgeMetadata struct {
	Metadata []struct {
		Type string `json:"Type"`
		Data struct {
			Offset   int64 `json:"Offset"`
			Duration int64 `json:"Duration"`
			Text     struct {
				Text string `json:"Text"`
			} `json:"text"`
		} `json:"Data"`
	} `json:"Metadata"`
}

// Synthesize streams TTS audio for text into outPath.
func (e *EdgeSynthesizer) Synthesize(ctx context.Context, text, voiceName string, rate float64, outPath string) (*SubMaker, error) {
	voiceName = ParseVoiceName(voiceName)
	if voiceName == "" {
		return nil, fmt.Errorf("no voice name configured")
	}

	connID := strings.ReplaceAll(uuid.New().String(), "-", "")
	u := fmt.Sprintf("%s?TrustedClientToken=%s&ConnectionId=%s", e.wssURL, edgeToken, connID)

	header := http.Header{}
	header.Set("Origin", "chrome-extension://jdiccldimpdaibmpdkjnbmckianbfold")
	header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36")

	conn, _, err := e.dialer.DialContext(ctx, u, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to speech service: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
		conn.SetWriteDeadline(deadline)
	}

	timestamp := time.Now().UTC().Format("Mon Jan 02 2006 15:04:05 GMT+0000 (Coordinated Universal Time)")

	speechConfig := fmt.Sprintf(
		"X-Timestamp:%s\r\nContent-Type:application/json; charset=utf-8\r\nPath:speech.config\r\n\r\n"+
			`{"context":{"synthesis":{"audio":{"metadataoptions":{"sentenceBoundaryEnabled":"false","wordBoundaryEnabled":"true"},"outputFormat":"%s"}}}}`,
		timestamp, outputFormat)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(speechConfig)); err != nil {
		return nil, fmt.Errorf("failed to send speech config: %w", err)
	}

	ssml := fmt.Sprintf(
		`<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'><voice name='%s'><prosody pitch='+0Hz' rate='%s' volume='+0%%'>%s</prosody></voice></speak>`,
		voiceName, FormatRate(rate), escapeXML(text))
	requestID := strings.ReplaceAll(uuid.New().String(), "-", "")
	ssmlMessage := fmt.Sprintf(
		"X-RequestId:%s\r\nContent-Type:application/ssml+xml\r\nX-Timestamp:%s\r\nPath:ssml\r\n\r\n%s",
		requestID, timestamp, ssml)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(ssmlMessage)); err != nil {
		return nil, fmt.Errorf("failed to send synthesis request: %w", err)
	}

	var (
		audio    bytes.Buffer
		subMaker SubMaker
	)
	timer := logging.StartTimer(logging.CategoryVoice, "tts synthesis")
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("speech stream failed: %w", err)
		}

		switch msgType {
		case websocket.TextMessage:
			headers, body := splitFrame(data)
			switch headers["Path"] {
			case "audio.metadata":
				var meta edgeMetadata
				if err := json.Unmarshal(body, &meta); err != nil {
					continue
				}
				for _, m := range meta.Metadata {
					if m.Type == "WordBoundary" {
						subMaker.Add(m.Data.Offset, m.Data.Duration, m.Data.Text.Text)
					}
				}
			case "turn.end":
				timer.Stop()
				if audio.Len() == 0 {
					return nil, fmt.Errorf("speech service returned no audio")
				}
				if err := os.WriteFile(outPath, audio.Bytes(), 0644); err != nil {
					return nil, fmt.Errorf("failed to write audio file: %w", err)
				}
				logging.Get(logging.CategoryVoice).Info("synthesized %d bytes, %d word boundaries", audio.Len(), len(subMaker.Spans))
				return &subMaker, nil
			}
		case websocket.BinaryMessage:
			// Binary frames carry a 2-byte header length, the header
			// block, then raw audio.
			if len(data) < 2 {
				continue
			}
			headerLen := int(data[0])<<8 | int(data[1])
			if len(data) > headerLen+2 {
				audio.Write(data[headerLen+2:])
			}
		}
	}
}

// splitFrame separates the colon-delimited header block from the body.
func splitFrame(data []byte) (map[string]string, []byte) {
	headers := map[string]string{}
	idx := bytes.Index(data, []byte("\r\n\r\n"))
	if idx < 0 {
		return headers, data
	}
	for _, line := range strings.Split(string(data[:idx]), "\r\n") {
		if k, v, ok := strings.Cut(line, ":"); ok {
			headers[k] = strings.TrimSpace(v)
		}
	}
	return headers, data[idx+4:]
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")
	return r.Replace(s)
}
