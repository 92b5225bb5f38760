// Package runner selects test cases and runs them one after another.
package runner

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fxnlabs/nvbandwidth/internal/metrics"
	"github.com/fxnlabs/nvbandwidth/internal/testcase"
	"go.uber.org/zap"
)

// Status is the outcome of one selector.
type Status int

const (
	Passed Status = iota
	Waived
	NotFound
	// Failed is only reported when the abort handler returns.
	Failed
)

func (s Status) String() string {
	switch s {
	case Passed:
		return "passed"
	case Waived:
		return "waived"
	case NotFound:
		return "not_found"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is the outcome of running one selector.
type Result struct {
	Key    string
	Status Status
	Matrix *testcase.Matrix
	Err    error
}

// Runner runs test cases against one environment.
type Runner struct {
	env       *testcase.Env
	testcases []testcase.Testcase
	out       io.Writer
	log       *zap.Logger
	abort     func(error)
}

// New returns a runner writing its report to out. A failing test case is
// passed to abort, which is expected not to return.
func New(env *testcase.Env, testcases []testcase.Testcase, out io.Writer, log *zap.Logger, abort func(error)) *Runner {
	return &Runner{
		env:       env,
		testcases: testcases,
		out:       out,
		log:       log.Named("runner"),
		abort:     abort,
	}
}

// Find returns the test case a selector names. A selector that parses as an
// integer is an index, anything else a key.
func (r *Runner) Find(selector string) (testcase.Testcase, error) {
	index, err := strconv.Atoi(selector)
	if err != nil {
		for _, tc := range r.testcases {
			if tc.Key() == selector {
				return tc, nil
			}
		}
		return nil, fmt.Errorf("Testcase %s not found!", selector)
	}
	if index < 0 || index >= len(r.testcases) {
		return nil, fmt.Errorf("Testcase index %s out of bound!", selector)
	}
	return r.testcases[index], nil
}

// Run runs the test cases named by selectors in order, or every test case
// when there are none. It stops after a failure only if the abort handler
// returns.
func (r *Runner) Run(selectors []string) []Result {
	if len(selectors) == 0 {
		for _, tc := range r.testcases {
			selectors = append(selectors, tc.Key())
		}
	}

	results := make([]Result, 0, len(selectors))
	for _, selector := range selectors {
		res := r.runOne(selector)
		results = append(results, res)
		if res.Status == Failed {
			break
		}
	}
	return results
}

func (r *Runner) runOne(selector string) Result {
	tc, err := r.Find(selector)
	if err != nil {
		fmt.Fprintf(r.out, "ERROR: %s\n", err)
		metrics.TestcaseResults.WithLabelValues(selector, NotFound.String()).Inc()
		return Result{Key: selector, Status: NotFound, Err: err}
	}

	res := Result{Key: tc.Key()}
	if !tc.Filter(r.env) {
		fmt.Fprintf(r.out, "Waiving %s.\n\n", tc.Key())
		res.Status = Waived
	} else {
		fmt.Fprintf(r.out, "Running %s.\n", tc.Key())
		start := time.Now()
		res.Matrix, res.Err = r.execute(tc)
		metrics.TestcaseDuration.WithLabelValues(tc.Key()).Observe(time.Since(start).Seconds())

		if res.Err != nil {
			res.Status = Failed
			metrics.TestcaseResults.WithLabelValues(tc.Key(), res.Status.String()).Inc()
			r.log.Error("test case failed", zap.String("testcase", tc.Key()), zap.Error(res.Err))
			r.abort(res.Err)
			return res
		}
		res.Matrix.Export(tc.Key())
		if err := res.Matrix.Print(r.out); err != nil {
			r.log.Warn("failed to print matrix", zap.String("testcase", tc.Key()), zap.Error(err))
		}
	}

	metrics.TestcaseResults.WithLabelValues(tc.Key(), res.Status.String()).Inc()
	return res
}

// execute runs tc inside a context created for it on device 0.
func (r *Runner) execute(tc testcase.Testcase) (*testcase.Matrix, error) {
	drv := r.env.Driver
	ctx, err := drv.CtxCreate(0)
	if err != nil {
		return nil, err
	}
	if err := drv.CtxSetCurrent(ctx); err != nil {
		return nil, err
	}

	m, err := tc.Run(r.env)
	derr := drv.CtxDestroy(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tc.Key(), err)
	}
	if derr != nil {
		return nil, derr
	}
	return m, nil
}

// List writes the index, key and description of every test case.
func (r *Runner) List(w io.Writer) error {
	if _, err := fmt.Fprint(w, "Index, Name:\n\tDescription\n=======================\n"); err != nil {
		return err
	}
	for i, tc := range r.testcases {
		if _, err := fmt.Fprintf(w, "%d, %s:\n%s\n\n", i, tc.Key(), tc.Description()); err != nil {
			return err
		}
	}
	return nil
}
