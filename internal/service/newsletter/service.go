// Package newsletter handles subscriptions, the welcome email and throttling
// of the signup popup.
package newsletter

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/mailer"
)

var ErrInvalidEmail = errors.New("invalid email address")

const (
	// MaxDismissals stops the popup for good once reached.
	MaxDismissals = 3
	// ReshowAfter is the minimum gap between two popup displays.
	ReshowAfter = 7 * 24 * time.Hour
)

type subscriberRepo interface {
	Create(ctx context.Context, s domain.Subscriber) (*domain.Subscriber, error)
	GetByEmail(ctx context.Context, email string) (*domain.Subscriber, error)
	MarkWelcomeSent(ctx context.Context, email string, at time.Time) (bool, error)
	ClearWelcomeSent(ctx context.Context, email string) error
}

type prefsStore interface {
	LoadPopupPrefs(ctx context.Context, sessionID string) domain.PopupPrefs
	SavePopupPrefs(ctx context.Context, sessionID string, prefs domain.PopupPrefs) error
}

type Service struct {
	repo         subscriberRepo
	mail         mailer.Sender
	prefs        prefsStore
	discountCode string
	logger       *zap.Logger
	now          func() time.Time
}

// New builds the service. mail may be nil, in which case welcome emails are
// skipped and stay unmarked.
func New(repo subscriberRepo, mail mailer.Sender, prefs prefsStore, discountCode string, logger *zap.Logger) *Service {
	return &Service{
		repo:         repo,
		mail:         mail,
		prefs:        prefs,
		discountCode: discountCode,
		logger:       logging.OrNop(logger).Named("newsletter"),
		now:          time.Now,
	}
}

// NormalizeEmail trims and lowercases email and checks it is a bare address.
func NormalizeEmail(email string) (string, error) {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e || !strings.Contains(e[strings.LastIndex(e, "@"):], ".") {
		return "", ErrInvalidEmail
	}
	return e, nil
}

// Subscribe records email as a subscriber. Subscribing an existing address
// returns the stored record. The session's popup is switched off and the
// welcome email is attempted; a delivery failure does not fail the
// subscription.
func (s *Service) Subscribe(ctx context.Context, sessionID, email, source string) (*domain.Subscriber, error) {
	addr, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if s.repo == nil {
		return nil, errors.New("subscriber storage unavailable")
	}

	sub, err := s.repo.Create(ctx, domain.Subscriber{Email: addr, Source: strings.TrimSpace(source)})
	if errors.Is(err, domain.ErrAlreadyExists) {
		sub, err = s.repo.GetByEmail(ctx, addr)
	}
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	if sessionID != "" {
		if err := s.MarkSubscribed(ctx, sessionID); err != nil {
			s.logger.Warn("persist popup prefs failed", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	if _, err := s.SendWelcome(ctx, addr); err != nil {
		s.logger.Warn("welcome email failed", zap.String("email", addr), zap.Error(err))
	}
	return sub, nil
}

// SendWelcome sends the discount email once per recipient. It reports whether
// this call sent it. The marker is claimed with a conditional update before
// sending and released again if delivery fails.
func (s *Service) SendWelcome(ctx context.Context, email string) (bool, error) {
	addr, err := NormalizeEmail(email)
	if err != nil {
		return false, err
	}
	sub, err := s.repo.GetByEmail(ctx, addr)
	if err != nil {
		return false, err
	}
	if sub.WelcomeSentAt != nil {
		return false, nil
	}
	if s.mail == nil {
		s.logger.Debug("mailer not configured, welcome email skipped", zap.String("email", addr))
		return false, nil
	}

	claimed, err := s.repo.MarkWelcomeSent(ctx, addr, s.now().UTC())
	if err != nil {
		return false, fmt.Errorf("mark welcome sent: %w", err)
	}
	if !claimed {
		return false, nil
	}

	msg, err := mailer.WelcomeMessage(addr, s.discountCode)
	if err == nil {
		err = s.mail.Send(ctx, msg)
	}
	if err != nil {
		if clearErr := s.repo.ClearWelcomeSent(ctx, addr); clearErr != nil {
			s.logger.Error("release welcome marker failed", zap.String("email", addr), zap.Error(clearErr))
		}
		return false, err
	}
	return true, nil
}

// ShouldShowPopup applies the throttle: never once subscribed or dismissed
// MaxDismissals times, otherwise at most once per ReshowAfter.
func ShouldShowPopup(prefs domain.PopupPrefs, now time.Time) bool {
	if prefs.Subscribed || prefs.DismissCount >= MaxDismissals {
		return false
	}
	if prefs.LastShownAt.IsZero() {
		return true
	}
	return now.Sub(prefs.LastShownAt) >= ReshowAfter
}

// PopupState is what the client needs to decide on the popup.
type PopupState struct {
	Show  bool              `json:"show"`
	Prefs domain.PopupPrefs `json:"prefs"`
}

func (s *Service) Popup(ctx context.Context, sessionID string) PopupState {
	prefs := s.prefs.LoadPopupPrefs(ctx, sessionID)
	return PopupState{Show: ShouldShowPopup(prefs, s.now()), Prefs: prefs}
}

func (s *Service) RecordShown(ctx context.Context, sessionID string) (domain.PopupPrefs, error) {
	return s.updatePrefs(ctx, sessionID, func(p *domain.PopupPrefs) {
		p.LastShownAt = s.now().UTC()
	})
}

func (s *Service) RecordDismissed(ctx context.Context, sessionID string) (domain.PopupPrefs, error) {
	return s.updatePrefs(ctx, sessionID, func(p *domain.PopupPrefs) {
		p.DismissCount++
		p.LastShownAt = s.now().UTC()
	})
}

func (s *Service) MarkSubscribed(ctx context.Context, sessionID string) error {
	_, err := s.updatePrefs(ctx, sessionID, func(p *domain.PopupPrefs) {
		p.Subscribed = true
	})
	return err
}

func (s *Service) updatePrefs(ctx context.Context, sessionID string, fn func(*domain.PopupPrefs)) (domain.PopupPrefs, error) {
	prefs := s.prefs.LoadPopupPrefs(ctx, sessionID)
	fn(&prefs)
	if err := s.prefs.SavePopupPrefs(ctx, sessionID, prefs); err != nil {
		return prefs, fmt.Errorf("save popup prefs: %w", err)
	}
	return prefs, nil
}
