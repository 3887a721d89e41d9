package ml

// FeatureMeta describes a model feature in terms a psychologist can read.
// Used only when rendering explanations; features without an entry fall back
// to their raw name.
type FeatureMeta struct {
	Titulo       string
	Descripcion  string
	Cuestionario string
	InterpAlta   string
	InterpBaja   string
	EjemploItems []string
	TipoEsperado string
}

var clinicalMetadata = map[string]FeatureMeta{
	"X_PANAS_Negativo": {
		Titulo: "Afecto Negativo Elevado",
		Descripcion: "Frecuencia de emociones displacenteras como tristeza, ansiedad, " +
			"culpa, irritabilidad o temor durante las últimas semanas.",
		Cuestionario: "PANAS",
		InterpAlta:   "Puntuaciones elevadas indican presencia significativa de malestar emocional.",
		InterpBaja:   "Bajos niveles de afecto negativo sugieren estabilidad emocional.",
		EjemploItems: []string{"Afligido/a", "Nervioso/a", "Irritable", "Temeroso/a"},
		TipoEsperado: "riesgo",
	},
	"X_PANAS_Positivo": {
		Titulo: "Afecto Positivo",
		Descripcion: "Presencia de emociones positivas como entusiasmo, energía, " +
			"motivación y capacidad de concentración.",
		Cuestionario: "PANAS",
		InterpAlta:   "Puntuaciones altas reflejan recursos emocionales y resiliencia.",
		InterpBaja:   "Bajos niveles pueden asociarse con apatía o disminución de energía.",
		EjemploItems: []string{"Motivado/a", "Entusiasta", "Activo/a", "Inspirado/a"},
		TipoEsperado: "protector",
	},
	"X_WHOQOL_PSYCH_MEAN": {
		Titulo: "Bienestar Psicológico Percibido",
		Descripcion: "Evaluación subjetiva de autoestima, sentido de vida, " +
			"concentración y frecuencia de pensamientos negativos.",
		Cuestionario: "WHOQOL-BREF",
		InterpAlta:   "Indica adecuada percepción de estabilidad emocional y satisfacción personal.",
		InterpBaja:   "Puede reflejar insatisfacción personal o presencia de pensamientos negativos frecuentes.",
		EjemploItems: []string{"¿Cuánto disfruta de la vida?", "¿Con qué frecuencia experimenta sentimientos negativos?"},
		TipoEsperado: "protector",
	},
	"X_WHOQOL_PHYS_MEAN": {
		Titulo: "Salud Física Percibida",
		Descripcion: "Nivel percibido de energía, calidad del sueño, " +
			"movilidad y capacidad para realizar actividades diarias.",
		Cuestionario: "WHOQOL-BREF",
		InterpAlta:   "Indica buena percepción de salud y funcionamiento físico.",
		InterpBaja:   "Puede asociarse con fatiga, alteraciones del sueño o limitaciones funcionales.",
		EjemploItems: []string{"¿Tiene suficiente energía para la vida diaria?", "¿Está satisfecho con su capacidad para trabajar?"},
		TipoEsperado: "protector",
	},
	"X_WHOQOL_SOCIAL_MEAN": {
		Titulo: "Apoyo y Relaciones Sociales",
		Descripcion: "Percepción de apoyo social, satisfacción con relaciones personales " +
			"y disponibilidad de ayuda.",
		Cuestionario: "WHOQOL-BREF",
		InterpAlta:   "Refleja red de apoyo funcional y relaciones satisfactorias.",
		InterpBaja:   "Puede indicar aislamiento social o insatisfacción relacional.",
		EjemploItems: []string{"¿Está satisfecho con sus relaciones personales?", "¿Cuenta con apoyo de amigos o familiares?"},
		TipoEsperado: "protector",
	},
	"X_CASO_MEAN": {
		Titulo: "Carga Global de Malestar Psicológico",
		Descripcion: "Indicador sintético de síntomas emocionales y conductuales " +
			"asociados a vulnerabilidad psicológica.",
		Cuestionario: "CASO",
		InterpAlta:   "Sugiere presencia significativa de síntomas emocionales.",
		InterpBaja:   "Indica baja presencia de sintomatología clínica.",
		EjemploItems: []string{"Síntomas persistentes de ansiedad o tristeza", "Dificultad para regular emociones"},
		TipoEsperado: "riesgo",
	},
}

// MetaFor returns the clinical metadata for a feature, or a bare entry whose
// title is the raw feature name when none is registered.
func MetaFor(feature string) FeatureMeta {
	if m, ok := clinicalMetadata[feature]; ok {
		return m
	}
	return FeatureMeta{Titulo: feature}
}
