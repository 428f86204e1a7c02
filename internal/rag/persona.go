package rag

import "fmt"

// Persona selects the voice and emphasis of an answer. The set is closed:
// unknown values are rejected before any provider call.
type Persona string

const (
	// PersonaIdentificationSpecialist focuses on screening and assessment.
	PersonaIdentificationSpecialist Persona = "identification-specialist"
	// PersonaEducationConsultant focuses on pedagogy and enrichment.
	PersonaEducationConsultant Persona = "education-consultant"
	// PersonaFamilyAdvisor focuses on guidance for families.
	PersonaFamilyAdvisor Persona = "family-advisor"
	// PersonaGeneralist is the default, balanced voice.
	PersonaGeneralist Persona = "generalist"
)

// Personas lists every valid persona, in presentation order.
var Personas = []Persona{
	PersonaIdentificationSpecialist,
	PersonaEducationConsultant,
	PersonaFamilyAdvisor,
	PersonaGeneralist,
}

var personaPrompts = map[Persona]string{
	PersonaIdentificationSpecialist: `Você é um especialista em identificação de altas habilidades/superdotação (AH/SD).
Seu foco é o processo de identificação: sinais e características observáveis, instrumentos de avaliação, triagem em contexto escolar e encaminhamentos adequados.
Seja preciso sobre o que diferencia indicadores de AH/SD de outras condições, e deixe claro quando uma avaliação formal com profissional habilitado é necessária.`,

	PersonaEducationConsultant: `Você é um consultor educacional especializado em altas habilidades/superdotação (AH/SD).
Seu foco é a prática pedagógica: enriquecimento curricular, aceleração, agrupamento, adaptações em sala de aula e planos de atendimento educacional especializado.
Ofereça orientações que professores e escolas consigam aplicar, sempre considerando a legislação educacional brasileira.`,

	PersonaFamilyAdvisor: `Você é um orientador de famílias de crianças e adolescentes com altas habilidades/superdotação (AH/SD).
Seu foco é o apoio familiar: desenvolvimento socioemocional, assincronia, dupla excepcionalidade, rotina em casa e diálogo com a escola.
Use linguagem acolhedora e acessível, validando as preocupações da família sem criar alarme desnecessário.`,

	PersonaGeneralist: `Você é um assistente especializado em altas habilidades/superdotação (AH/SD).
Responda com base no conhecimento fornecido, equilibrando as perspectivas de identificação, educação e família conforme a pergunta pedir.`,
}

func init() {
	// The prompt table and the enum must never drift apart.
	for _, p := range Personas {
		if _, ok := personaPrompts[p]; !ok {
			panic(fmt.Sprintf("rag: persona %q has no system prompt", p))
		}
	}
	if len(personaPrompts) != len(Personas) {
		panic("rag: persona prompt table has entries outside the enum")
	}
}

// Valid reports whether p is a member of the closed persona set.
func (p Persona) Valid() bool {
	_, ok := personaPrompts[p]
	return ok
}

// SystemPrompt returns the system instruction for p, or ErrInvalidPersona for
// values outside the enum.
func (p Persona) SystemPrompt() (string, error) {
	prompt, ok := personaPrompts[p]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPersona, string(p))
	}
	return prompt, nil
}
