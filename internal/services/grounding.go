package services

import (
	"fmt"
	"strings"

	"github.com/nt-language-lab-api/internal/models"
	"github.com/nt-language-lab-api/internal/reference"
)

// groundingInstruction restricts the model to the single verse it is given
const groundingInstruction = `Eres un experto en lingüística comparativa especializado en griego koiné y español.

REGLAS DE CONTEXTO:
- Usa SOLO el texto griego y el texto español del versículo proporcionado; son la única fuente autorizada.
- No introduzcas otros versículos, referencias cruzadas ni afirmaciones teológicas que no se deriven de estos dos textos.
- Realiza una comparación LINGÜÍSTICA (no teológica).
- Cita siempre el libro, capítulo y versículo e indica el idioma de cada texto.
- Explica que el griego es el texto original.
- Si falta el texto griego, indícalo y limita el análisis al texto español.`

// comparisonPrompt is the task appended after the verse context
const comparisonPrompt = `Realiza una comparación lingüística entre el texto griego original y la traducción al español.
Analiza: 1) Palabras clave y su traducción 2) Matices de significado 3) Estructura gramatical 4) Notas gramaticales relevantes.
Mantén la respuesta concisa y enfocada en aspectos lingüísticos.`

// GroundedPayload is the only context handed to the generation service.
// It describes exactly one verse.
type GroundedPayload struct {
	Instruction string `json:"instruction"`
	VerseID     string `json:"verse_id"`
	Reference   string `json:"reference"`
	Greek       string `json:"greek"`
	Spanish     string `json:"spanish"`
	Task        string `json:"task"`
}

// BuildGroundedPayload shapes the generation context for a single verse
func BuildGroundedPayload(verse models.VerseRecord) GroundedPayload {
	return GroundedPayload{
		Instruction: groundingInstruction,
		VerseID:     verse.ID,
		Reference:   reference.FormatReference(verse.Book, verse.Chapter, verse.Verse),
		Greek:       verse.Greek,
		Spanish:     verse.Spanish,
		Task:        comparisonPrompt,
	}
}

// Context renders the verse block of the prompt
func (p GroundedPayload) Context() string {
	greek := p.Greek
	if strings.TrimSpace(greek) == "" {
		greek = "(texto griego no disponible)"
	}
	return fmt.Sprintf(`REFERENCIA: %s

TEXTO ORIGINAL (Griego Koiné):
%s

TRADUCCIÓN (Reina-Valera 1960):
%s`, p.Reference, greek, p.Spanish)
}

// Prompt renders the full user message: instruction, verse context, task
func (p GroundedPayload) Prompt() string {
	return p.Instruction + "\n\nCONTEXTO (usa SOLO este texto):\n" + p.Context() + "\n\nTAREA:\n" + p.Task
}
