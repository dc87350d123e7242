package diagnosis

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	pkgerrors "github.com/pshiva123/Intelligent-Diagnosis-System/pkg/errors"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/logger"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/types"
)

const defaultMaxTextLength = 4000

type predictionRecorder interface {
	ObservePrediction(kind string, duration time.Duration)
}

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	MaxTextLength int
	Logger        *logger.Logger
	Metrics       predictionRecorder
	Now           func() time.Time
}

// Service validates symptom text, asks the predictor and aggregates the answer.
type Service struct {
	predictor     Predictor
	maxTextLength int
	logg          *logger.Logger
	metrics       predictionRecorder
	now           func() time.Time
}

func NewService(predictor Predictor, opts Options) (*Service, error) {
	if predictor == nil {
		return nil, fmt.Errorf("predictor required")
	}
	if opts.MaxTextLength <= 0 {
		opts.MaxTextLength = defaultMaxTextLength
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		predictor:     predictor,
		maxTextLength: opts.MaxTextLength,
		logg:          opts.Logger,
		metrics:       opts.Metrics,
		now:           opts.Now,
	}, nil
}

// Diagnose returns the aggregated result for one submission. Failures of the
// prediction call surface as CodePrediction and can be retried.
func (s *Service) Diagnose(ctx context.Context, session types.Session, text string) (Result, error) {
	if !session.Valid() {
		return Result{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "patient session required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "symptom text is required").
			WithDetails(map[string]string{"text": "is required"})
	}
	if utf8.RuneCountInString(text) > s.maxTextLength {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "symptom text is too long").
			WithDetails(map[string]string{"text": fmt.Sprintf("must be at most %d characters", s.maxTextLength)})
	}

	ctx = s.logg.WithUsername(ctx, session.Username)
	start := s.now()
	prediction, err := s.predictor.Predict(ctx, session, text)
	elapsed := s.now().Sub(start)
	if err != nil {
		s.observe("failed", elapsed)
		if !pkgerrors.HasCode(err, pkgerrors.CodePrediction) {
			err = pkgerrors.Wrap(pkgerrors.CodePrediction, err, "prediction failed")
		}
		s.logg.Warn(s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "diagnosis.prediction_failed")
		return Result{}, err
	}

	result := Aggregate(prediction)
	result.SubmittedAt = s.now()
	s.observe(string(result.Kind), elapsed)
	s.logg.Info(s.logg.WithField(ctx, "kind", result.Kind), "diagnosis.completed")
	return result, nil
}

func (s *Service) observe(kind string, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObservePrediction(kind, elapsed)
}
