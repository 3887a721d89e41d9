package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// Enum-like string values. Table and column names are English; the data
// values stay byte-compatible with the original screening system's exports,
// so estado/nivel/tipo strings are the Spanish ones the psychologists and
// the trained model artifacts already use.

// Session lifecycle states.
const (
	SessionPendiente  = "PENDIENTE"
	SessionEnCurso    = "EN_CURSO"
	SessionCompletada = "COMPLETADA"
)

// Question response types.
const (
	TipoTexto          = "TEXTO"
	TipoNumerica       = "NUMERICA"
	TipoFecha          = "FECHA"
	TipoSiNo           = "SI_NO"
	TipoOpcionUnica    = "OPCION_UNICA"
	TipoOpcionMultiple = "OPCION_MULTIPLE"
	TipoEscala         = "ESCALA"
)

// Questionnaire is a versioned, published instrument.
type Questionnaire struct {
	ID     int64
	Codigo string
	Nombre string
	// Version distinguishes revisions of the same codigo.
	Version string
	Activo  bool
	// Config holds the free-form questionnaire-level configuration,
	// including the optional "scoring" scheme (mode + bands).
	Config pqtype.NullRawMessage
}

// Question belongs to one questionnaire. Orden is unique per questionnaire.
type Question struct {
	ID              int64
	QuestionnaireID int64
	Texto           string
	TipoRespuesta   string
	Orden           int32
	// Codigo is the optional stable item code, e.g. "PANAS_07". Empty means
	// the scoring engine falls back to positional synthesis.
	Codigo    string
	Requerido bool
	// Config holds min/max/step/labels/reverse/subscale/var for scale items.
	Config pqtype.NullRawMessage
}

// Option belongs to one question. Valor is stored as text but is numerically
// interpretable for scored questions.
type Option struct {
	ID         int64
	QuestionID int64
	Texto      string
	Valor      string
	Orden      int32
}

// Student is the screened individual.
type Student struct {
	ID             uuid.UUID
	NombreCompleto string
	Email          sql.NullString
	// PsicologoEmail is the assigned psychologist's address for high-risk
	// alerts. NULL means no one is assigned yet.
	PsicologoEmail sql.NullString
	CreatedAt      time.Time
}

// EvaluationSession is one student's attempt at one questionnaire.
type EvaluationSession struct {
	ID              uuid.UUID
	StudentID       uuid.UUID
	QuestionnaireID int64
	Estado          string
	FechaInicio     time.Time
	// FechaFin is set only on the transition to COMPLETADA.
	FechaFin sql.NullTime
}

// Response holds at most one of option reference / numeric value / free text.
// Unique per (session, question).
type Response struct {
	ID            int64
	SessionID     uuid.UUID
	QuestionID    int64
	OptionID      sql.NullInt64
	ValorNumerico sql.NullFloat64
	ValorTexto    sql.NullString
}

// SessionScore is the auto-scoring snapshot for a completed session. The
// breakdown is stored verbatim so a re-render never recomputes.
type SessionScore struct {
	SessionID uuid.UUID
	Total     float64
	Breakdown pqtype.NullRawMessage
	Creado    time.Time
}

// RiskPrediction is the single, overwritten prediction record per student.
type RiskPrediction struct {
	StudentID uuid.UUID
	// Features is the full feature snapshot used as model input, including
	// missing-feature diagnostics when the prediction degraded to SIN_DATOS.
	Features      pqtype.NullRawMessage
	Probabilidad  sql.NullFloat64
	Nivel         string
	ModeloVersion string
	Actualizado   time.Time
}
