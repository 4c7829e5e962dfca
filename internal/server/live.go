package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/readlark/readlark/internal/observe"
	"github.com/readlark/readlark/internal/readaloud"
	"github.com/readlark/readlark/pkg/phonics"
	"github.com/readlark/readlark/pkg/speech"
)

// liveSessionTimeout bounds one websocket assessment session. A child reads
// a page in minutes, not hours; a stuck client should not pin a connection.
const liveSessionTimeout = 15 * time.Minute

// Frame types exchanged over /v1/assess/live. The client drives: one start,
// any number of words, one finish. The server answers every word with a
// progress frame and the finish with the full assessment.
const (
	frameStart      = "start"
	frameWord       = "word"
	frameFinish     = "finish"
	frameProgress   = "progress"
	frameAssessment = "assessment"
	frameError      = "error"
)

// liveFrame is the wire format in both directions. Type selects which fields
// are meaningful.
type liveFrame struct {
	Type string `json:"type"`

	// start (client → server)
	ExpectedText string `json:"expected_text,omitempty"`
	Inventory    string `json:"inventory,omitempty"`

	// word (client → server)
	Word        string  `json:"word,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
	TimestampMs int64   `json:"timestamp_ms,omitempty"`

	// finish (client → server)
	ReadingTimeMs int64 `json:"reading_time_ms,omitempty"`

	// progress (server → client)
	WordsHeard      int     `json:"words_heard,omitempty"`
	RunningAccuracy float64 `json:"running_accuracy,omitempty"`

	// assessment (server → client)
	Assessment *readaloud.Assessment `json:"assessment,omitempty"`

	// error (server → client)
	Error string `json:"error,omitempty"`
}

// handleAssessLive runs one live assessment session over a websocket.
//
// Protocol: the client sends a start frame naming the expected text, then a
// word frame per transcribed word as the ASR collaborator emits it, then a
// finish frame with the attempt duration. After each word the server replies
// with the running accuracy; after finish it replies with the final
// assessment and closes the connection normally. Protocol violations close
// the connection with a policy-violation status.
func (s *Server) handleAssessLive(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		// Accept already wrote the HTTP error.
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithTimeout(r.Context(), liveSessionTimeout)
	defer cancel()

	if err := s.runLiveSession(ctx, conn); err != nil {
		var closeErr websocket.CloseError
		if errors.As(err, &closeErr) || errors.Is(err, context.Canceled) {
			return
		}
		observe.Logger(ctx).Debug("live assessment session ended", "error", err)
		_ = wsjson.Write(ctx, conn, liveFrame{Type: frameError, Error: err.Error()})
		_ = conn.Close(websocket.StatusPolicyViolation, "protocol error")
	}
}

func (s *Server) runLiveSession(ctx context.Context, conn *websocket.Conn) error {
	var start liveFrame
	if err := wsjson.Read(ctx, conn, &start); err != nil {
		return err
	}
	if start.Type != frameStart {
		return fmt.Errorf("expected start frame, got %q", start.Type)
	}
	if start.ExpectedText == "" {
		return errors.New("start frame must carry expected_text")
	}

	inv, err := s.resolveInventory(ctx, start.Inventory)
	if err != nil {
		return err
	}

	var spoken []speech.TranscribedWord
	for {
		var f liveFrame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			return err
		}

		switch f.Type {
		case frameWord:
			if phonics.NormalizeWord(f.Word) == "" {
				continue
			}
			spoken = append(spoken, speech.TranscribedWord{
				Word:        f.Word,
				Confidence:  f.Confidence,
				TimestampMs: f.TimestampMs,
			})
			progress := liveFrame{
				Type:            frameProgress,
				WordsHeard:      len(spoken),
				RunningAccuracy: s.runningAccuracy(inv, start.ExpectedText, spoken),
			}
			if err := wsjson.Write(ctx, conn, progress); err != nil {
				return err
			}

		case frameFinish:
			assessment := s.assess(inv, start.ExpectedText, spoken, f.ReadingTimeMs)
			final := liveFrame{Type: frameAssessment, Assessment: assessment}
			if err := wsjson.Write(ctx, conn, final); err != nil {
				return err
			}
			return conn.Close(websocket.StatusNormalClosure, "")

		default:
			return fmt.Errorf("unexpected frame type %q", f.Type)
		}
	}
}

// runningAccuracy re-aligns the words heard so far against the expected text
// and reports correct judgements over words heard. Unread expected words are
// not counted against the child mid-attempt; the final assessment scores
// omissions normally.
func (s *Server) runningAccuracy(inv *phonics.Inventory, expectedText string, spoken []speech.TranscribedWord) float64 {
	assessment := s.assess(inv, expectedText, spoken, 0)

	correct, heard := 0, 0
	for _, w := range assessment.Words {
		if w.Spoken == "" {
			continue
		}
		heard++
		if w.Correct {
			correct++
		}
	}
	if heard == 0 {
		return 0
	}
	return float64(correct) / float64(heard)
}
