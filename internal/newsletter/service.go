package newsletter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"example.com/recipes-vault/backend/internal/models"
	"example.com/recipes-vault/backend/internal/repository"
)

// ErrInvalidEmail означает некорректный адрес в форме подписки.
var ErrInvalidEmail = errors.New("invalid email address")

const (
	KindWelcome  = "welcome"
	KindCampaign = "campaign"

	welcomeSubject = "Welcome to RecipesVault!"
)

// Store хранит подписчиков рассылки.
type Store interface {
	GetByEmail(ctx context.Context, email string) (models.NewsletterSubscriber, error)
	GetByToken(ctx context.Context, token string) (models.NewsletterSubscriber, error)
	Create(ctx context.Context, email string, userID *int64, token string) (models.NewsletterSubscriber, error)
	Reactivate(ctx context.Context, id int64, userID *int64) (models.NewsletterSubscriber, error)
	LinkUser(ctx context.Context, id, userID int64) (models.NewsletterSubscriber, error)
	Deactivate(ctx context.Context, id int64) (models.NewsletterSubscriber, error)
	MarkSent(ctx context.Context, id int64, sentAt time.Time) error
	ListActive(ctx context.Context) ([]models.NewsletterSubscriber, error)
	CountActive(ctx context.Context) (int, error)
}

// Users обновляет флаг подписки в профиле пользователя.
type Users interface {
	SetNewsletterSubscribed(ctx context.Context, userID int64, subscribed bool) (models.User, error)
}

// Journal сохраняет историю отправленных рассылок.
type Journal interface {
	Record(ctx context.Context, entry models.NewsletterLog, userIDs []int64) (models.NewsletterLog, error)
}

// Recorder считает отправленные письма. Реализуется пакетом metrics.
type Recorder interface {
	EmailSent(kind string, err error)
}

type Options struct {
	AppBaseURL        string
	SendRatePerSecond int
}

type Service struct {
	store     Store
	users     Users
	journal   Journal
	mailer    Mailer
	templates *Templates
	recorder  Recorder
	logger    *slog.Logger
	limiter   *rate.Limiter
	baseURL   string
}

// Campaign - рассылка, составленная администратором.
type Campaign struct {
	Subject  string
	HTML     string
	RecipeID *int64
	SentBy   *int64
}

type SendResult struct {
	LogID      int64 `json:"log_id"`
	Recipients int   `json:"recipients"`
	Sent       int   `json:"sent"`
	Failed     int   `json:"failed"`
}

type Preview struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}

// NewService создает сервис рассылки. recorder и logger могут быть nil.
func NewService(store Store, users Users, journal Journal, mailer Mailer, templates *Templates, opts Options, recorder Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	perSecond := opts.SendRatePerSecond
	if perSecond <= 0 {
		perSecond = 5
	}

	return &Service{
		store:     store,
		users:     users,
		journal:   journal,
		mailer:    mailer,
		templates: templates,
		recorder:  recorder,
		logger:    logger,
		limiter:   rate.NewLimiter(rate.Limit(perSecond), 1),
		baseURL:   strings.TrimRight(opts.AppBaseURL, "/"),
	}
}

// Sync приводит строку подписчика в соответствие с предпочтением пользователя.
// Повторный вызов с тем же значением ничего не меняет и не отправляет писем.
func (s *Service) Sync(ctx context.Context, user models.User, subscribe bool) error {
	email := normalizeEmail(user.Email)

	existing, err := s.store.GetByEmail(ctx, email)
	found := err == nil
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("load subscriber: %w", err)
	}

	if !subscribe {
		if found && existing.IsActive {
			if _, err := s.store.Deactivate(ctx, existing.ID); err != nil {
				return fmt.Errorf("deactivate subscriber: %w", err)
			}
		}
		return nil
	}

	userID := user.ID

	switch {
	case !found:
		subscriber, err := s.create(ctx, email, &userID)
		if errors.Is(err, repository.ErrConflict) {
			// параллельная синхронизация уже создала строку
			return s.linkExisting(ctx, email, userID)
		}
		if err != nil {
			return err
		}
		s.sendWelcome(ctx, subscriber, user.Name())
	case !existing.IsActive:
		subscriber, err := s.store.Reactivate(ctx, existing.ID, &userID)
		if err != nil {
			return fmt.Errorf("reactivate subscriber: %w", err)
		}
		s.sendWelcome(ctx, subscriber, user.Name())
	case existing.UserID == nil:
		if _, err := s.store.LinkUser(ctx, existing.ID, userID); err != nil {
			return fmt.Errorf("link subscriber: %w", err)
		}
	}

	return nil
}

// Subscribe подписывает адрес из публичной формы. Возвращает false, если подписка уже активна.
func (s *Service) Subscribe(ctx context.Context, email string) (bool, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return false, ErrInvalidEmail
	}

	existing, err := s.store.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("load subscriber: %w", err)
	}

	if err == nil {
		if existing.IsActive {
			return false, nil
		}

		subscriber, err := s.store.Reactivate(ctx, existing.ID, nil)
		if err != nil {
			return false, fmt.Errorf("reactivate subscriber: %w", err)
		}
		s.sendWelcome(ctx, subscriber, "")
		return true, nil
	}

	subscriber, err := s.create(ctx, email, nil)
	if errors.Is(err, repository.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.sendWelcome(ctx, subscriber, "")
	return true, nil
}

// Unsubscribe выключает подписку по токену и снимает флаг подписки у привязанного пользователя.
func (s *Service) Unsubscribe(ctx context.Context, token string) (models.NewsletterSubscriber, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.NewsletterSubscriber{}, repository.ErrNotFound
	}

	subscriber, err := s.store.GetByToken(ctx, token)
	if err != nil {
		return subscriber, err
	}

	if subscriber.IsActive {
		subscriber, err = s.store.Deactivate(ctx, subscriber.ID)
		if err != nil {
			return subscriber, fmt.Errorf("deactivate subscriber: %w", err)
		}
	}

	if subscriber.UserID != nil && s.users != nil {
		if _, err := s.users.SetNewsletterSubscribed(ctx, *subscriber.UserID, false); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return subscriber, fmt.Errorf("clear user newsletter flag: %w", err)
		}
	}

	return subscriber, nil
}

// Status сообщает, активна ли подписка для адреса.
func (s *Service) Status(ctx context.Context, email string) (bool, error) {
	subscriber, err := s.store.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return subscriber.IsActive, nil
}

// CountActive возвращает число активных подписчиков.
func (s *Service) CountActive(ctx context.Context) (int, error) {
	return s.store.CountActive(ctx)
}

// Preview возвращает очищенное письмо с демонстрационной ссылкой отписки.
func (s *Service) Preview(raw string) (Preview, error) {
	body, err := Sanitize(raw)
	if err != nil {
		return Preview{}, err
	}

	document, err := withFooter(body, UnsubscribeURL(s.baseURL, previewToken))
	if err != nil {
		return Preview{}, err
	}

	return Preview{HTML: document, Text: textPart(document)}, nil
}

// Send рассылает письмо всем активным подписчикам с ограничением скорости.
// Ошибка доставки одному получателю журналируется и не прерывает рассылку.
func (s *Service) Send(ctx context.Context, campaign Campaign) (SendResult, error) {
	subject := strings.TrimSpace(campaign.Subject)
	if subject == "" {
		return SendResult{}, ErrEmptyContent
	}

	body, err := Sanitize(campaign.HTML)
	if err != nil {
		return SendResult{}, err
	}

	subscribers, err := s.store.ListActive(ctx)
	if err != nil {
		return SendResult{}, fmt.Errorf("list active subscribers: %w", err)
	}

	result := SendResult{Recipients: len(subscribers)}
	userIDs := make([]int64, 0)

	for _, subscriber := range subscribers {
		if err := s.limiter.Wait(ctx); err != nil {
			return result, err
		}

		document, err := withFooter(body, UnsubscribeURL(s.baseURL, subscriber.UnsubscribeToken))
		if err != nil {
			return result, err
		}

		err = s.mailer.Send(ctx, Message{
			ToEmail: subscriber.Email,
			Subject: subject,
			HTML:    document,
			Text:    textPart(document),
		})
		s.record(KindCampaign, err)
		if err != nil {
			result.Failed++
			s.logger.Warn("newsletter delivery failed",
				slog.Int64("subscriber_id", subscriber.ID),
				slog.String("error", err.Error()),
			)
			continue
		}

		result.Sent++
		if err := s.store.MarkSent(ctx, subscriber.ID, time.Now().UTC()); err != nil {
			s.logger.Warn("mark newsletter sent failed", slog.Int64("subscriber_id", subscriber.ID), slog.String("error", err.Error()))
		}
		if subscriber.UserID != nil {
			userIDs = append(userIDs, *subscriber.UserID)
		}
	}

	entry, err := s.journal.Record(ctx, models.NewsletterLog{
		RecipeID:       campaign.RecipeID,
		SubjectLine:    subject,
		RecipientCount: result.Sent,
		FailedCount:    result.Failed,
		SentBy:         campaign.SentBy,
	}, userIDs)
	if err != nil {
		return result, fmt.Errorf("record newsletter: %w", err)
	}
	result.LogID = entry.ID

	s.logger.Info("newsletter sent",
		slog.Int64("log_id", entry.ID),
		slog.Int("recipients", result.Recipients),
		slog.Int("sent", result.Sent),
		slog.Int("failed", result.Failed),
	)

	return result, nil
}

// Templates возвращает шаблоны писем.
func (s *Service) Templates() *Templates {
	return s.templates
}

func (s *Service) create(ctx context.Context, email string, userID *int64) (models.NewsletterSubscriber, error) {
	token, err := newToken()
	if err != nil {
		return models.NewsletterSubscriber{}, err
	}

	subscriber, err := s.store.Create(ctx, email, userID, token)
	if err != nil {
		return subscriber, fmt.Errorf("create subscriber: %w", err)
	}

	return subscriber, nil
}

func (s *Service) linkExisting(ctx context.Context, email string, userID int64) error {
	existing, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("load subscriber: %w", err)
	}

	if existing.UserID == nil {
		if _, err := s.store.LinkUser(ctx, existing.ID, userID); err != nil {
			return fmt.Errorf("link subscriber: %w", err)
		}
	}

	return nil
}

// sendWelcome отправляет приветственное письмо. Ошибка только журналируется.
func (s *Service) sendWelcome(ctx context.Context, subscriber models.NewsletterSubscriber, name string) {
	if s.templates == nil {
		return
	}

	document, err := s.templates.welcome(UnsubscribeURL(s.baseURL, subscriber.UnsubscribeToken))
	if err == nil {
		err = s.mailer.Send(ctx, Message{
			ToEmail: subscriber.Email,
			ToName:  name,
			Subject: welcomeSubject,
			HTML:    document,
			Text:    textPart(document),
		})
	}

	s.record(KindWelcome, err)
	if err != nil {
		s.logger.Warn("welcome email failed",
			slog.Int64("subscriber_id", subscriber.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := s.store.MarkSent(ctx, subscriber.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("mark welcome sent failed", slog.Int64("subscriber_id", subscriber.ID), slog.String("error", err.Error()))
	}
}

func (s *Service) record(kind string, err error) {
	if s.recorder != nil {
		s.recorder.EmailSent(kind, err)
	}
}
