package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/tutorquest-api/internal/domain/entity"
	"github.com/yourusername/tutorquest-api/internal/service/ranking"
)

// fakeEmails возвращает ошибки из очереди, затем успех
type fakeEmails struct {
	errs     []error
	requests []*resend.SendEmailRequest
	options  []*resend.SendEmailOptions
}

func (f *fakeEmails) SendWithOptions(ctx context.Context, params *resend.SendEmailRequest, options *resend.SendEmailOptions) (*resend.SendEmailResponse, error) {
	f.requests = append(f.requests, params)
	f.options = append(f.options, options)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return &resend.SendEmailResponse{Id: "email-1"}, nil
}

func newTestNotifier(emails *fakeEmails) (*ResendNotifier, *[]time.Duration) {
	var waits []time.Duration
	return &ResendNotifier{
		from:   "leagues@tutorquest.test",
		emails: emails,
		sleep: func(ctx context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		},
	}, &waits
}

var promotion = ranking.Movement{
	UserID: 7, Name: "alice", Email: "alice@example.com",
	From: entity.TierBronze, To: entity.TierSilver, WeeklyXP: 120,
}

func TestResendNotifier_SendsPromotionEmail(t *testing.T) {
	emails := &fakeEmails{}
	n, waits := newTestNotifier(emails)

	require.NoError(t, n.NotifyLeagueMove(context.Background(), promotion, testWeek))
	require.Len(t, emails.requests, 1)
	req := emails.requests[0]
	assert.Equal(t, []string{"alice@example.com"}, req.To)
	assert.Equal(t, "Promoted to the Silver league!", req.Subject)
	assert.Contains(t, req.Text, "120 XP")
	assert.Equal(t, "league-move-2026-W42-7-silver", emails.options[0].IdempotencyKey)
	assert.Empty(t, *waits)
}

func TestResendNotifier_RetriesRateLimit(t *testing.T) {
	emails := &fakeEmails{errs: []error{&resend.RateLimitError{RetryAfter: "2"}}}
	n, waits := newTestNotifier(emails)

	require.NoError(t, n.NotifyLeagueMove(context.Background(), promotion, testWeek))
	assert.Len(t, emails.requests, 2)
	assert.Equal(t, []time.Duration{2 * time.Second}, *waits)
}

func TestResendNotifier_GivesUpOnPermanentError(t *testing.T) {
	emails := &fakeEmails{errs: []error{errors.New("invalid from address")}}
	n, _ := newTestNotifier(emails)

	err := n.NotifyLeagueMove(context.Background(), promotion, testWeek)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid from address")
	assert.Len(t, emails.requests, 1)
}

func TestResendNotifier_StopsAfterThreeAttempts(t *testing.T) {
	timeout := errors.New("request timeout")
	emails := &fakeEmails{errs: []error{timeout, timeout, timeout, timeout}}
	n, waits := newTestNotifier(emails)

	err := n.NotifyLeagueMove(context.Background(), promotion, testWeek)
	assert.ErrorIs(t, err, timeout)
	assert.Len(t, emails.requests, 3)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second, 1500 * time.Millisecond}, *waits)
}

func TestLeagueMoveEmail_Relegation(t *testing.T) {
	subject, text, html := leagueMoveEmail(ranking.Movement{
		Name: "bob", From: entity.TierGold, To: entity.TierSilver, WeeklyXP: 0,
	})
	assert.Equal(t, "You moved to the Silver league", subject)
	assert.Contains(t, text, "from gold to silver")
	assert.Contains(t, html, "<p>")
}

func TestNewResendNotifier_RequiresConfig(t *testing.T) {
	_, err := NewResendNotifier("", "a@b.c")
	assert.Error(t, err)
	_, err = NewResendNotifier("key", "")
	assert.Error(t, err)
}
