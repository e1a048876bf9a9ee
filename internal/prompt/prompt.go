// Package prompt assembles the generation prompt from retrieved passages,
// the user's question, and its legal category.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mezan-dz/mezand/internal/vectorstore"
)

// NoContextSentinel is rendered into the context slot when retrieval
// returned nothing.
const NoContextSentinel = "No relevant information found in the knowledge base for this query."

// Placeholder names the template must contain.
const (
	slotContext  = "{context}"
	slotCategory = "{category}"
	slotQuestion = "{question}"
)

// ErrMissingSlot indicates a template text without all required placeholders.
var ErrMissingSlot = errors.New("template is missing a required placeholder")

// Values are the typed slots substituted into a Template.
type Values struct {
	// Context is the formatted retrieval context (see FormatContext).
	Context string

	// Category is the legal category the user selected.
	Category string

	// Question is the user's question, verbatim.
	Question string
}

// Template is a validated prompt template with three named slots. Slots are
// substituted verbatim; the template carries all framing, instructions, and
// the mandatory disclaimer.
type Template struct {
	text string
}

// New validates the template text and returns a Template. The text must
// contain the {context}, {category}, and {question} placeholders.
func New(text string) (*Template, error) {
	for _, slot := range []string{slotContext, slotCategory, slotQuestion} {
		if !strings.Contains(text, slot) {
			return nil, fmt.Errorf("%w: %s", ErrMissingSlot, slot)
		}
	}
	return &Template{text: text}, nil
}

// MustNew is New for template constants; it panics on invalid text.
func MustNew(text string) *Template {
	t, err := New(text)
	if err != nil {
		panic(err)
	}
	return t
}

// Render substitutes the slots into the template text.
func (t *Template) Render(v Values) string {
	r := strings.NewReplacer(
		slotContext, v.Context,
		slotCategory, v.Category,
		slotQuestion, v.Question,
	)
	return r.Replace(t.text)
}

// FormatContext renders retrieved chunks for the {context} slot, one passage
// per snippet with a header naming its source file and chunk index. Empty
// retrieval renders the fixed sentinel instead.
func FormatContext(results []vectorstore.SearchResult) string {
	if len(results) == 0 {
		return NoContextSentinel
	}

	parts := make([]string, len(results))
	for i, r := range results {
		source := metadataValue(r.Metadata, "source")
		chunkNum := metadataValue(r.Metadata, "chunk_num")
		parts[i] = fmt.Sprintf("--- Context Snippet from JORADP (Source: %s, Chunk: %s) ---\n%s",
			source, chunkNum, r.Content)
	}
	return strings.Join(parts, "\n\n")
}

// metadataValue formats a metadata field, or "N/A" when absent.
func metadataValue(metadata map[string]interface{}, key string) string {
	if metadata == nil {
		return "N/A"
	}
	v, ok := metadata[key]
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%v", v)
}

// Default is the canonical chat prompt: answers are grounded strictly in the
// retrieved snippets, general-information only, same language as the
// question, with the verbatim disclaimer appended.
var Default = MustNew(`**Role:** You are Mezan, a helpful AI assistant providing *general informational guidance* on Algerian law.
Your responses are based *primarily* on the "Context Snippets from JORADP" provided below, which come from processed Algerian Official Journal documents.

**Context Snippets from JORADP:**
{context}

**User's Question related to the legal category "{category}":**
{question}

**Task:**
1. Carefully review the "Context Snippets from JORADP".
2. Based *only* on the information found in these snippets, provide a clear, concise, and *general informational* answer to the user's question.
3. If the provided snippets do not contain enough information to directly answer the question, state that the specific detail is not found in the *available documents* and provide any *general information* you can based on *relevant parts* of the snippets, or state you cannot answer based on the provided context. Do not invent information outside the snippets.
4. RESPOND IN THE SAME LANGUAGE AS THE USER'S QUESTION.
5. **Crucially, DO NOT give specific legal advice, predict legal outcomes, or tell the user what they *should* do in their personal situation.** Frame answers as general possibilities, common procedures, or what the *provided context* indicates the law generally states.
6. **ALWAYS include the following disclaimer VERBATIM at the end of your response, on a new line:**
   "--- Disclaimer: This information is for general educational purposes only based on Algerian law and is not a substitute for professional legal advice. Laws can change, and individual situations vary. You should consult a qualified Algerian lawyer for advice tailored to your specific circumstances. ---"

**Constraints:**
* Keep the response informative but relatively brief for a chat context.
* Strictly base answers on the provided "Context Snippets from JORADP".

**Answer:**`)
