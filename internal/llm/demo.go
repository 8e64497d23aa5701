package llm

import (
	"context"
	"strings"

	"github.com/merval-inteligente/pfi-chat-service/internal/models"
)

// demoResponses maps keywords to canned replies, used when no OpenAI
// key is configured.
var demoResponses = []struct {
	keyword  string
	response string
}{
	{"hola", "¡Hola! Soy tu asistente financiero especializado en el mercado argentino. ¿En qué puedo ayudarte?"},
	{"merval", "MERVAL HOY\n\nPrincipales acciones:\n- GGAL, BMA, SUPV (Bancos)\n- YPF, PAM (Energía)\n- TECO2 (Telecom)\n\n¿Te interesa algún sector en particular?"},
	{"ypf", "YPF - Análisis\n\n- Líder en energía argentina\n- Exposición a Vaca Muerta\n- Dependiente de precios del petróleo\n- Riesgo: regulación gubernamental"},
	{"bitcoin", "Bitcoin en Argentina\n\n- Cobertura contra inflación\n- Alternativa al dólar blue\n- Considerá la volatilidad alta\n- Aspectos impositivos AFIP"},
	{"bonos", "Bonos Argentinos\n\n- AL30, AL35 (USD)\n- Riesgo país elevado\n- Rendimientos atractivos pero riesgosos\n- Historial de defaults"},
	{"dolar", "Dólar Argentina\n\n- Oficial vs Blue (brecha cambiaria)\n- MEP y CCL para inversores\n- Impacto en acciones locales\n- Cobertura recomendada"},
	{"dólar", "Dólar Argentina\n\n- Oficial vs Blue (brecha cambiaria)\n- MEP y CCL para inversores\n- Impacto en acciones locales\n- Cobertura recomendada"},
}

const demoDefaultResponse = `Asistente financiero en MODO DEMO.

Puedo ayudarte con:
- MERVAL: análisis de acciones argentinas
- YPF: sector energético
- Bitcoin: criptomonedas en Argentina
- Bonos: instrumentos de renta fija
- Dólar: tipos de cambio

Para respuestas con IA real, configurá OPENAI_API_KEY.

¿Qué te interesa analizar?`

// DemoProvider answers from keyword tables without calling any model
// backend. It mirrors the demo mode of the original service so the
// rest of the pipeline can be exercised without credentials.
type DemoProvider struct{}

func NewDemoProvider() *DemoProvider { return &DemoProvider{} }

func (p *DemoProvider) Name() string { return "demo" }

// GenerateReply matches the newest user message against the keyword
// table.
func (p *DemoProvider) GenerateReply(ctx context.Context, messages []models.PromptMessage) (string, error) {
	var lastUser string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleUser {
			lastUser = strings.ToLower(messages[i].Content)
			break
		}
	}

	for _, entry := range demoResponses {
		if strings.Contains(lastUser, entry.keyword) {
			return entry.response, nil
		}
	}
	return demoDefaultResponse, nil
}
