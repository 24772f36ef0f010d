package narrative

import (
	"cmp"
	"fmt"
	"strings"
)

const chunkRules = `Key Requirements:

   - Language & Tone: Use informal, natural, and conversational Malayalam. Avoid overly formal or classical literary language. Write for a general audience that enjoys commercial fiction.
   - Narrative Style:
      - Emotional Depth: Include rich emotional narration so the reader connects with the characters' feelings, thoughts, and internal conflicts.
      - Character Interaction: Use a high proportion of authentic, natural dialogue. Show relationships and development through conversation.
      - Pacing: Balance descriptive passages with action and dialogue.
      - Climax/Cliffhanger: The part must end on a cliffhanger that pulls the reader into the next installment.
      - No Summarizing: Do not summarize events; describe them as they happen.

   - Content:
      - Beginning & End: Must begin and end with dialogue.
      - Originality: Do not plagiarize.
      - Context: Ensure the story flows logically from previous parts and from the story so far.`

// ChunkPrompt builds the request for the next continuation of a part.
func ChunkPrompt(req Request, storySoFar string) string {
	var b strings.Builder
	b.WriteString("Generate a detailed and fully fleshed-out story part for a commercial fiction series in Malayalam.\n")
	fmt.Fprintf(&b, "The overall story part %d is based on the following summary: %q\n", req.PartIndex+1, req.Summary)
	if style := strings.TrimSpace(req.Style); style != "" {
		fmt.Fprintf(&b, "Writing Style: Make it %s.\n", style)
	}
	b.WriteString("\n")
	b.WriteString(chunkRules)
	b.WriteString("\n\nCurrent story so far:\n")
	fmt.Fprintf(&b, "\"%s\"\n\n", storySoFar)
	fmt.Fprintf(&b, "Continue the story. Generate approximately %d words.", req.ChunkWords)
	return b.String()
}

// BookContext is the book-level metadata a summary prompt is conditioned on.
type BookContext struct {
	Premise       string
	Genres        []string
	Setting       string
	Theme         string
	POV           string
	DialogueStyle string
}

const notSpecified = "Not specified"

const summaryRules = `Instructions:
Language & Tone: Use informal, natural, and conversational Malayalam, in the same accessible and engaging tone as the story parts themselves.
Conciseness: Be direct. Focus on the crucial plot developments, character actions, key events and significant emotional shifts.
Clarity: The summary must be easy to understand for someone who has not read the part.
Conflict: The summary should contain a key conflict that drives the part towards its end.
Key Information: Include:
  - Main events that occurred.
  - Major character decisions or revelations.
  - The outcome or cliffhanger at the end of the part.
No Spoilers for Future Parts: Only summarize what happens within this part.
No Dialogue: The summary is pure narrative, without direct dialogue quotes.
No Personal Opinions: Stick to objective summarization of the plot.
Only return the summary, with no explanations or formatting.`

// SummaryPrompt builds the single-call request for a part summary.
func SummaryPrompt(book BookContext, partIndex int) string {
	genres := notSpecified
	if len(book.Genres) > 0 {
		genres = strings.Join(book.Genres, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate a concise summary (maximum 200 words) of part %d from a commercial fiction series in Malayalam.\n\n", partIndex+1)
	b.WriteString("Story Context:\n")
	fmt.Fprintf(&b, "- Premise: %s\n", cmp.Or(strings.TrimSpace(book.Premise), notSpecified))
	fmt.Fprintf(&b, "- Genres: %s\n", genres)
	fmt.Fprintf(&b, "- Setting: %s\n", cmp.Or(strings.TrimSpace(book.Setting), notSpecified))
	fmt.Fprintf(&b, "- Theme: %s\n", cmp.Or(strings.TrimSpace(book.Theme), notSpecified))
	fmt.Fprintf(&b, "- Point of View: %s\n", cmp.Or(strings.TrimSpace(book.POV), notSpecified))
	fmt.Fprintf(&b, "- Dialogue Style: %s\n\n", cmp.Or(strings.TrimSpace(book.DialogueStyle), notSpecified))
	b.WriteString(summaryRules)
	return b.String()
}
