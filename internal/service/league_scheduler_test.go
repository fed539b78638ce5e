package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	calls  int
	forced []bool
	err    error
}

func (r *countingRunner) RunWeeklyPromotion(ctx context.Context, force bool) (*PromotionReport, error) {
	r.calls++
	r.forced = append(r.forced, force)
	if r.err != nil {
		return nil, r.err
	}
	return &PromotionReport{Week: testWeek}, nil
}

func TestNewLeagueScheduler_RejectsBadCron(t *testing.T) {
	_, err := NewLeagueScheduler(&countingRunner{}, "every sunday", time.UTC, time.Minute)
	assert.Error(t, err)
}

func TestLeagueScheduler_RunNeverForces(t *testing.T) {
	runner := &countingRunner{}
	ls, err := NewLeagueScheduler(runner, "55 23 * * 0", time.UTC, time.Minute)
	require.NoError(t, err)
	defer ls.Shutdown()

	ls.run()
	runner.err = ErrPromotionInProgress
	ls.run()

	assert.Equal(t, 2, runner.calls)
	assert.Equal(t, []bool{false, false}, runner.forced)
}
