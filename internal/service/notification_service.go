package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/yourusername/tutorquest-api/internal/domain/entity"
	"github.com/yourusername/tutorquest-api/internal/service/ranking"
)

// LeagueNotifier сообщает пользователю о переходе в другую лигу.
type LeagueNotifier interface {
	NotifyLeagueMove(ctx context.Context, move ranking.Movement, weekKey string) error
}

// NoopNotifier используется, когда Resend не настроен.
type NoopNotifier struct{}

func (n *NoopNotifier) NotifyLeagueMove(ctx context.Context, move ranking.Movement, weekKey string) error {
	log.Printf("[NotificationService] noop league move user=%d %s -> %s (%s)", move.UserID, move.From, move.To, weekKey)
	return nil
}

// emailSender - часть resend клиента, которой мы пользуемся
type emailSender interface {
	SendWithOptions(ctx context.Context, params *resend.SendEmailRequest, options *resend.SendEmailOptions) (*resend.SendEmailResponse, error)
}

// ResendNotifier отправляет письма через Resend REST API.
type ResendNotifier struct {
	from   string
	emails emailSender
	// sleep подменяется в тестах
	sleep func(ctx context.Context, d time.Duration) error
}

func NewResendNotifier(apiKey, from string) (*ResendNotifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendNotifier{
		from:   from,
		emails: resend.NewClient(apiKey).Emails,
		sleep:  sleepCtx,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func tierTitle(t entity.LeagueTier) string {
	s := string(t)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// leagueMoveEmail формирует тему и тело письма о переходе
func leagueMoveEmail(move ranking.Movement) (subject, text, html string) {
	if move.To.Index() > move.From.Index() {
		subject = fmt.Sprintf("Promoted to the %s league!", tierTitle(move.To))
		text = fmt.Sprintf("Great week, %s! With %d XP you moved up from %s to %s.", move.Name, move.WeeklyXP, move.From, move.To)
	} else {
		subject = fmt.Sprintf("You moved to the %s league", tierTitle(move.To))
		text = fmt.Sprintf("Hi %s, this week you earned %d XP and moved from %s to %s. Keep practicing to climb back!", move.Name, move.WeeklyXP, move.From, move.To)
	}
	html = "<p>" + text + "</p>"
	return subject, text, html
}

func (s *ResendNotifier) NotifyLeagueMove(ctx context.Context, move ranking.Movement, weekKey string) error {
	if move.Email == "" {
		return fmt.Errorf("user %d has no email", move.UserID)
	}

	subject, text, html := leagueMoveEmail(move)
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{move.Email},
		Subject: subject,
		Text:    text,
		Html:    html,
	}
	// повторный запуск за ту же неделю не отправит письмо дважды
	options := &resend.SendEmailOptions{
		IdempotencyKey: fmt.Sprintf("league-move-%s-%d-%s", weekKey, move.UserID, move.To),
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			if err := s.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}
