package prompts

import (
	"fmt"
	"strings"
	"time"
)

const systemPromptTemplate = `Eres un asistente financiero especializado en el mercado argentino (MERVAL) y criptomonedas.

Tu propósito es ayudar a inversores, tanto principiantes como experimentados, con:

ESPECIALIDADES:
- Análisis de acciones argentinas (MERVAL, Panel General)
- Interpretación de indicadores financieros y técnicos
- Análisis de ADRs argentinos
- Criptomonedas y su relación con el mercado argentino
- Bonos soberanos y provinciales
- Situación macroeconómica argentina

ESTILO DE RESPUESTA:
- Responde en español argentino
- Sé preciso, educativo y empático
- Usa ejemplos prácticos del mercado local
- Estructura las respuestas de forma organizada

LIMITACIONES:
- No brindes consejos financieros específicos de compra/venta
- Siempre sugiere consultar con un asesor financiero
- Aclara que la información es educativa y que los mercados son volátiles

Fecha actual: %s`

// FallbackMessage is returned when the model provider fails.
const FallbackMessage = "Lo siento, no pude procesar tu consulta en este momento. Por favor, intentá nuevamente en unos minutos."

// SystemPrompt builds the assistant persona prompt, optionally
// enriched with caller-supplied user context.
func SystemPrompt(userContext map[string]string) string {
	prompt := fmt.Sprintf(systemPromptTemplate, time.Now().Format("2006-01-02"))

	if len(userContext) == 0 {
		return prompt
	}

	var builder strings.Builder
	builder.WriteString(prompt)
	builder.WriteString("\n\nCONTEXTO DEL USUARIO:\n")
	for key, value := range userContext {
		builder.WriteString(fmt.Sprintf("- %s: %s\n", key, value))
	}
	return builder.String()
}
