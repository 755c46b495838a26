// Package server exposes the dialogue agent over a websocket endpoint. One
// connection is one conversation session: the session state is created on
// upgrade, driven turn by turn from inbound messages, and dropped on
// disconnect.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	contractx "github.com/voxcal/voxcal/agent/contract"
	statex "github.com/voxcal/voxcal/agent/state"
)

type Config struct {
	Host            string `envconfig:"HOST" split_words:"true" default:"0.0.0.0"`
	Port            int    `envconfig:"PORT" split_words:"true" default:"8000"`
	DefaultTimezone string `envconfig:"DEFAULT_TIMEZONE" split_words:"true" default:"UTC"`
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TurnRunner advances one session by one turn. The orchestrator satisfies it.
type TurnRunner interface {
	Turn(ctx context.Context, st *statex.ConversationState, userMessage string)
}

// inboundMessage is one client frame. Type selects the payload encoding:
// "text" carries the utterance verbatim, "audio" carries base64 audio bytes.
type inboundMessage struct {
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

// outboundMessage is one agent frame. AudioB64 is present only when a
// synthesizer is configured and succeeded for this turn.
type outboundMessage struct {
	Text     string `json:"text"`
	AudioB64 string `json:"audio_b64,omitempty"`
	Step     string `json:"step"`
}

type errorMessage struct {
	Error string `json:"error"`
}

func nowUTC() time.Time { return time.Now().UTC() }

// Handler upgrades HTTP requests to websocket sessions and runs the turn loop
// for each. Transcriber and Synthesizer are optional; without them the
// endpoint is text only.
type Handler struct {
	runner      TurnRunner
	registry    *statex.Registry
	transcriber contractx.Transcriber
	synthesizer contractx.Synthesizer
	cfg         Config

	upgrader websocket.Upgrader
}

func NewHandler(runner TurnRunner, registry *statex.Registry, cfg Config) *Handler {
	if strings.TrimSpace(cfg.DefaultTimezone) == "" {
		cfg.DefaultTimezone = "UTC"
	}
	return &Handler{
		runner:   runner,
		registry: registry,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// WithSpeech attaches optional speech collaborators and returns the handler
// for chaining.
func (h *Handler) WithSpeech(t contractx.Transcriber, s contractx.Synthesizer) *Handler {
	h.transcriber = t
	h.synthesizer = s
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	h.serve(r.Context(), conn)
}

func (h *Handler) serve(ctx context.Context, conn *websocket.Conn) {
	sessionID := uuid.NewString()
	st := statex.New(sessionID, h.cfg.DefaultTimezone, nowUTC())
	if err := h.registry.Put(st); err != nil {
		log.Error().Err(err).Msg("session registration failed")
		conn.Close()
		return
	}

	defer func() {
		h.registry.Remove(sessionID)
		conn.Close()
		log.Info().Str("session_id", sessionID).Msg("session closed")
	}()

	log.Info().Str("session_id", sessionID).Msg("session opened")

	// Greet before the first client frame so the caller hears the agent first.
	h.runner.Turn(ctx, st, "")
	if err := h.send(ctx, conn, st); err != nil {
		return
	}

	for {
		var in inboundMessage
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("session_id", sessionID).Msg("websocket read failed")
			}
			return
		}

		utterance, err := h.resolveUtterance(ctx, in)
		if err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("inbound message rejected")
			if werr := conn.WriteJSON(errorMessage{Error: err.Error()}); werr != nil {
				return
			}
			continue
		}

		h.runner.Turn(ctx, st, utterance)
		if err := h.send(ctx, conn, st); err != nil {
			return
		}
	}
}

func (h *Handler) resolveUtterance(ctx context.Context, in inboundMessage) (string, error) {
	switch in.Type {
	case "text":
		return in.Payload, nil
	case "audio":
		if h.transcriber == nil {
			return "", fmt.Errorf("audio input is not enabled")
		}
		audio, err := base64.StdEncoding.DecodeString(in.Payload)
		if err != nil {
			return "", fmt.Errorf("invalid audio payload: %v", err)
		}
		text, err := h.transcriber.Transcribe(ctx, audio)
		if err != nil {
			return "", fmt.Errorf("transcription failed: %v", err)
		}
		return text, nil
	default:
		return "", fmt.Errorf("unknown message type %q", in.Type)
	}
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, st *statex.ConversationState) error {
	out := outboundMessage{
		Text: st.SystemMessage,
		Step: string(st.Step),
	}

	if h.synthesizer != nil && out.Text != "" {
		audio, err := h.synthesizer.Synthesize(ctx, out.Text)
		if err != nil {
			// Degrade to text only; the turn already happened.
			log.Warn().Err(err).Str("session_id", st.SessionID).Msg("speech synthesis failed")
		} else {
			out.AudioB64 = base64.StdEncoding.EncodeToString(audio)
		}
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Warn().Err(err).Str("session_id", st.SessionID).Msg("websocket write failed")
		return err
	}
	return nil
}
