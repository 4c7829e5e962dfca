// Package speech holds the transcribed-word types exchanged with external
// automatic-speech-recognition collaborators. Readlark never touches audio;
// it consumes words that have already been transcribed, each carrying the
// recognizer's confidence and a timestamp relative to the start of the
// reading attempt.
package speech

// TranscribedWord is one word of a child's spoken reading attempt as
// reported by the ASR collaborator.
type TranscribedWord struct {
	// Word is the transcribed text. It may carry punctuation or casing from
	// the recognizer; consumers normalize before comparing.
	Word string `json:"word"`

	// Confidence is the recognizer's confidence in this word (0.0-1.0).
	// Zero when the provider does not report confidence.
	Confidence float64 `json:"confidence"`

	// TimestampMs is when the word started, in milliseconds from the start
	// of the attempt.
	TimestampMs int64 `json:"timestamp_ms"`
}

// Words extracts the bare word strings in order.
func Words(ws []TranscribedWord) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Word
	}
	return out
}
