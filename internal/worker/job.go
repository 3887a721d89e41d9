package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/psytriage/tamizaje-backend/internal/db"
	"github.com/psytriage/tamizaje-backend/internal/email"
	"github.com/psytriage/tamizaje-backend/internal/ml"
	"github.com/psytriage/tamizaje-backend/internal/predict"
)

// Job holds the dependencies for the refresh-and-alert pipeline. Each step is
// a separate method call so the Run method reads like a checklist.
type Job struct {
	q         db.Querier
	predictor *predict.Predictor
	mailer    email.Sender
	logger    *slog.Logger
}

// NewJob constructs a Job with all required dependencies.
func NewJob(
	q db.Querier,
	predictor *predict.Predictor,
	mailer email.Sender,
	logger *slog.Logger,
) *Job {
	return &Job{
		q:         q,
		predictor: predictor,
		mailer:    mailer,
		logger:    logger,
	}
}

// Run refreshes one student's risk prediction:
//
//  1. Rebuild features from the latest completed sessions and run the model.
//  2. Persist the prediction (the predictor writes every outcome, including
//     SIN_DATOS degradations).
//  3. If the new tier is ALTO, alert the student's assigned psychologist.
//
// Any error is returned to the Runner, which retries up to MaxRetries times.
func (j *Job) Run(ctx context.Context, studentID uuid.UUID) error {
	log := j.logger.With("student_id", studentID)
	log.Info("job: starting")

	pred, err := j.predictor.Refresh(ctx, studentID)
	if err != nil {
		return fmt.Errorf("job: refresh prediction: %w", err)
	}

	log.Debug("job: prediction refreshed",
		"nivel", pred.Nivel,
		"modelo_version", pred.ModeloVersion,
	)

	if pred.Nivel != string(ml.TierHigh) {
		return nil
	}

	// High tier: notify the assigned psychologist. Email failure does not
	// fail the job — the prediction is already persisted and visible on the
	// dashboard, and re-running the refresh would just re-send the alert.
	student, err := j.q.GetStudentByID(ctx, studentID)
	if err != nil {
		log.Error("job: could not load student for alert", "error", err)
		return nil
	}

	if !student.PsicologoEmail.Valid || student.PsicologoEmail.String == "" {
		log.Warn("job: student has no assigned psychologist, skipping alert")
		return nil
	}

	if err := j.mailer.SendHighRiskAlert(ctx, email.HighRiskAlertParams{
		To:           student.PsicologoEmail.String,
		StudentName:  student.NombreCompleto,
		Nivel:        pred.Nivel,
		Probabilidad: pred.Probabilidad.Float64,
	}); err != nil {
		log.Error("job: failed to send high-risk alert",
			"to", student.PsicologoEmail.String,
			"error", err,
		)
	}

	return nil
}
