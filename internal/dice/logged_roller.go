package dice

import (
	"errors"

	"go.uber.org/zap"
)

// Roller wraps an Evaluator and logger to provide logged roll-string evaluation.
// Every evaluation is logged at debug level with expression, total, and rolls;
// rejected roll strings are logged at debug level with the offending input.
type Roller struct {
	eval   *Evaluator
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that evaluates with eval and logs each roll to logger.
//
// Precondition: eval and logger must be non-nil.
func NewLoggedRoller(eval *Evaluator, logger *zap.Logger) *Roller {
	return &Roller{eval: eval, logger: logger}
}

// Roll evaluates rollString and logs the outcome at debug level.
//
// Postcondition: outcome logged; returns RollResult or the evaluator's error unmodified.
func (r *Roller) Roll(rollString string) (RollResult, error) {
	result, err := r.eval.Evaluate(rollString)
	if err != nil {
		fields := []zap.Field{
			zap.String("expression", rollString),
			zap.Error(err),
		}
		var inv *InvalidRollStringError
		if errors.As(err, &inv) {
			fields = append(fields, zap.String("input", inv.Input))
			if inv.Reason != "" {
				fields = append(fields, zap.String("reason", inv.Reason))
			}
		}
		r.logger.Debug("dice roll rejected", fields...)
		return RollResult{}, err
	}
	r.logger.Debug("dice roll",
		zap.String("expression", rollString),
		zap.Int("total", result.Total),
		zap.Int("groups", result.GroupCount()),
		zap.Any("rolls", result.Rolls),
	)
	return result, nil
}
