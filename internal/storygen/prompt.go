package storygen

import (
	"fmt"
	"strings"

	"github.com/readlark/readlark/pkg/phonics"
	"github.com/readlark/readlark/pkg/provider/textgen"
)

// RegenerationContext is the feedback threaded from one attempt into the
// next prompt. It is the only state carried between attempts besides the
// counter, and it is an explicit value so each attempt's prompt can be
// constructed and tested independently.
type RegenerationContext struct {
	// Attempt is the 1-based attempt number.
	Attempt int

	// PreviousUndecodableWords are the undecodable words from the previous
	// attempt's report. Empty on the first attempt.
	PreviousUndecodableWords []string
}

// systemPromptTemplate is the base system prompt. The phonics constraints
// are appended at call time so each request carries the learner's current
// taught set.
const systemPromptTemplate = `You are a children's phonics story writer. You write very short decodable books for children who are just learning to read.

Every word you use MUST be spellable using ONLY the letter-sound correspondences listed below, or be one of the allowed sight words. This constraint is absolute: a single word outside the allowed set makes the book unreadable for this child.

Allowed letter-sound correspondences (graphemes):
%s

Allowed sight words (the child has memorized these as whole words):
%s
%s
Write 4-8 pages with one short sentence per page. Keep sentences simple and repetitive; repetition helps early readers.

Respond with ONLY a JSON object in this exact format (no markdown, no prose):
%s`

// targetSection formats the optional target-grapheme emphasis block.
const targetSection = `
Graphemes to practise — use words containing these as often as naturally possible:
%s
`

// BuildRequest constructs the collaborator request for one attempt from the
// learner fingerprint and the regeneration context.
func BuildRequest(fp *phonics.Fingerprint, tricky phonics.TrickyWords, rc RegenerationContext, priorSummaries []string) textgen.Request {
	return textgen.Request{
		SystemPrompt: buildSystemPrompt(fp, tricky),
		Prompt:       buildUserPrompt(fp, rc, priorSummaries),
	}
}

// buildSystemPrompt renders the hard phonics constraints.
func buildSystemPrompt(fp *phonics.Fingerprint, tricky phonics.TrickyWords) string {
	graphemes := strings.Join(fp.TaughtSet().Graphemes(), ", ")

	// Only sight words the learner could plausibly have met: the
	// inventory's tricky set, comma-joined.
	sight := strings.Join(tricky.Words(), ", ")
	if sight == "" {
		sight = "(none)"
	}

	targets := ""
	if len(fp.TargetGraphemes) > 0 {
		targets = fmt.Sprintf(targetSection, strings.Join(fp.TargetSet().Graphemes(), ", "))
	}

	return fmt.Sprintf(systemPromptTemplate, graphemes, sight, targets, textgen.DraftSchema)
}

// buildUserPrompt renders the story request: preferences first, then — from
// attempt 2 onward — the avoidance list built from the previous attempt's
// undecodable words.
func buildUserPrompt(fp *phonics.Fingerprint, rc RegenerationContext, priorSummaries []string) string {
	var sb strings.Builder

	sb.WriteString("Write a new decodable story.\n")
	if fp.Age > 0 {
		fmt.Fprintf(&sb, "Reader age: %d.\n", fp.Age)
	}
	if len(fp.Themes) > 0 {
		fmt.Fprintf(&sb, "Themes the child enjoys: %s.\n", strings.Join(fp.Themes, ", "))
	}
	if len(fp.Characters) > 0 {
		fmt.Fprintf(&sb, "Recurring characters to include: %s.\n", strings.Join(fp.Characters, ", "))
	}

	if len(priorSummaries) > 0 {
		sb.WriteString("\nEarlier stories in this series — write something clearly different from these:\n")
		for _, s := range priorSummaries {
			sb.WriteString("- ")
			sb.WriteString(s)
			sb.WriteByte('\n')
		}
	}

	if len(rc.PreviousUndecodableWords) > 0 {
		fmt.Fprintf(&sb, "\nYour previous draft (attempt %d) used words this child cannot read. Each of the following words must be replaced with a decodable alternative:\n", rc.Attempt-1)
		for _, w := range rc.PreviousUndecodableWords {
			sb.WriteString("- ")
			sb.WriteString(w)
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}
