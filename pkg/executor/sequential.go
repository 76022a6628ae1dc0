package executor

import (
	"context"
	"fmt"

	"github.com/droptoken/etl/pkg/logger"
	"github.com/droptoken/etl/pkg/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/sourcegraph/conc/panics"
)

type Operator interface {
	Run(ctx context.Context, q postgres.Querier) error
}

// OperatorFunc adapts a plain function to an Operator.
type OperatorFunc func(ctx context.Context, q postgres.Querier) error

func (f OperatorFunc) Run(ctx context.Context, q postgres.Querier) error {
	return f(ctx, q)
}

type Step struct {
	Name     string
	Operator Operator
}

// StepError identifies the step that stopped a run.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step '%s' failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Sequential runs steps one after another inside a single transaction.
type Sequential struct {
	Logger logger.Logger
}

// Run begins a transaction, runs every step in order and commits. The first failing
// step, or a step that panics, stops the run and the transaction is rolled back.
func (s Sequential) Run(ctx context.Context, db beginner, steps []Step) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	for _, step := range steps {
		s.Logger.Infof("Running step %s", step.Name)

		if err := runStep(ctx, tx, step); err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.Logger.Errorf("failed to roll back after step %s: %v", step.Name, rbErr)
			}
			return &StepError{Step: step.Name, Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	return nil
}

func runStep(ctx context.Context, q postgres.Querier, step Step) (err error) {
	var pc panics.Catcher
	pc.Try(func() {
		err = step.Operator.Run(ctx, q)
	})

	if r := pc.Recovered(); r != nil {
		return r.AsError()
	}

	return err
}
