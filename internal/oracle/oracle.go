package oracle

import (
	"context"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/starloop/cartomancer/internal/card"
)

// MaxQuestionLength bounds the querent's question, in characters
const MaxQuestionLength = 500

// Generator turns a prompt into text. Latency and provider failures are the
// implementation's concern.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Oracle answers questions about a card through a Generator
type Oracle struct {
	gen    Generator
	policy *bluemonday.Policy
	logger *zap.Logger
}

// New creates an Oracle. A nil logger discards log output.
func New(gen Generator, logger *zap.Logger) *Oracle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Oracle{
		gen:    gen,
		policy: bluemonday.StrictPolicy(),
		logger: logger,
	}
}

// Ask builds the prompt for the card and returns the generated answer with
// any markup stripped
func (o *Oracle) Ask(ctx context.Context, c card.Card, question, lang string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("question is required")
	}
	if n := utf8.RuneCountInString(question); n > MaxQuestionLength {
		return "", fmt.Errorf("question is %d characters long, the limit is %d", n, MaxQuestionLength)
	}

	prompt := BuildPrompt(c, question, lang)
	o.logger.Debug("Asking the oracle",
		zap.Int("card", c.ID), zap.String("lang", lang), zap.Int("prompt_chars", utf8.RuneCountInString(prompt)))

	text, err := o.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("oracle request failed: %w", err)
	}

	// Sanitize escapes entities; the answer is printed as plain text
	answer := strings.TrimSpace(html.UnescapeString(o.policy.Sanitize(text)))
	if answer == "" {
		return "", fmt.Errorf("oracle returned an empty answer")
	}
	return answer, nil
}

var sectionTitles = map[string]map[card.Section]string{
	"es": {
		card.Archetype: "Arquetipo", card.Shadow: "Sombra", card.Mysticism: "Misticismo",
		card.Daily: "Cotidiano", card.Botany: "Botánica", card.Gnosis: "Gnosis",
		card.BiblicalResonanceSection: "Resonancia bíblica",
	},
	"en": {
		card.Archetype: "Archetype", card.Shadow: "Shadow", card.Mysticism: "Mysticism",
		card.Daily: "Daily", card.Botany: "Botany", card.Gnosis: "Gnosis",
		card.BiblicalResonanceSection: "Biblical resonance",
	},
}

var languageNames = map[string]string{
	"es": "Spanish", "en": "English", "pt": "Portuguese", "fr": "French",
	"de": "German", "ja": "Japanese", "ko": "Korean", "zh": "Chinese",
}

// cardContext joins the non-empty sections of a card, one titled paragraph each
func cardContext(c card.Card, titles map[card.Section]string) string {
	var parts []string
	for _, s := range card.TextSections {
		if text := c.Content.Text(s); text != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", titles[s], text))
		}
	}

	br := c.Content.BiblicalResonance
	if br.Quote != "" || br.Connection != "" {
		parts = append(parts, fmt.Sprintf("%s: \"%s\" (%s) %s",
			titles[card.BiblicalResonanceSection], br.Quote, br.Reference, br.Connection))
	}
	return strings.Join(parts, "\n\n")
}

// BuildPrompt renders the question prompt for a card. Spanish has its own
// template; every other language uses the English one with an explicit
// answer language.
func BuildPrompt(c card.Card, question, lang string) string {
	if lang == "es" {
		return fmt.Sprintf(promptES, c.Name, cardContext(c, sectionTitles["es"]), question)
	}

	name, ok := languageNames[lang]
	if !ok {
		name = "English"
	}
	return fmt.Sprintf(promptEN, c.Name, cardContext(c, sectionTitles["en"]), question, name)
}

const promptES = `Eres un oráculo místico especializado en interpretación del Tarot y orientación espiritual.

CONTEXTO DE LA CARTA: %s

INFORMACIÓN COMPLETA DE LA CARTA:
%s

PREGUNTA DEL CONSULTANTE:
"%s"

TAREA:
Responde la pregunta del consultante de manera profunda y significativa, basándote específicamente en el contenido de la carta revelada.

INSTRUCCIONES:
1. Analiza cómo la pregunta se relaciona con las dimensiones de la carta
2. Cita los aspectos relevantes de la carta que responden a la pregunta
3. Proporciona orientación práctica y espiritual
4. Extensión: 250-350 palabras, en párrafos continuos, sin listas`

const promptEN = `You are a mystical oracle specialized in Tarot interpretation and spiritual guidance.

CARD CONTEXT: %s

COMPLETE CARD INFORMATION:
%s

QUERENT'S QUESTION:
"%s"

TASK:
Answer the querent's question in a deep and meaningful way, based specifically on the content of the revealed card.

INSTRUCTIONS:
1. Analyze how the question relates to the dimensions of the card
2. Cite the aspects of the card that answer the question
3. Provide practical and spiritual guidance
4. Length: 250-350 words, continuous paragraphs, no lists
5. Write the answer in %s`
