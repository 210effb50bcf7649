package newsletter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"example.com/recipes-vault/backend/internal/models"
	"example.com/recipes-vault/backend/internal/repository"
)

type memoryStore struct {
	mu          sync.Mutex
	subscribers []models.NewsletterSubscriber
	nextID      int64
}

func (m *memoryStore) find(match func(models.NewsletterSubscriber) bool) (int, bool) {
	for i, s := range m.subscribers {
		if match(s) {
			return i, true
		}
	}
	return 0, false
}

func (m *memoryStore) GetByEmail(_ context.Context, email string) (models.NewsletterSubscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email = strings.ToLower(email)
	if i, ok := m.find(func(s models.NewsletterSubscriber) bool { return s.Email == email }); ok {
		return m.subscribers[i], nil
	}
	return models.NewsletterSubscriber{}, repository.ErrNotFound
}

func (m *memoryStore) GetByToken(_ context.Context, token string) (models.NewsletterSubscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i, ok := m.find(func(s models.NewsletterSubscriber) bool { return s.UnsubscribeToken == token }); ok {
		return m.subscribers[i], nil
	}
	return models.NewsletterSubscriber{}, repository.ErrNotFound
}

func (m *memoryStore) Create(_ context.Context, email string, userID *int64, token string) (models.NewsletterSubscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.find(func(s models.NewsletterSubscriber) bool { return s.Email == email || s.UnsubscribeToken == token }); ok {
		return models.NewsletterSubscriber{}, repository.ErrConflict
	}

	m.nextID++
	subscriber := models.NewsletterSubscriber{
		ID:               m.nextID,
		Email:            email,
		UserID:           userID,
		SubscribedDate:   time.Now(),
		IsActive:         true,
		UnsubscribeToken: token,
	}
	m.subscribers = append(m.subscribers, subscriber)
	return subscriber, nil
}

func (m *memoryStore) update(id int64, change func(*models.NewsletterSubscriber)) (models.NewsletterSubscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.find(func(s models.NewsletterSubscriber) bool { return s.ID == id })
	if !ok {
		return models.NewsletterSubscriber{}, repository.ErrNotFound
	}
	change(&m.subscribers[i])
	return m.subscribers[i], nil
}

func (m *memoryStore) Reactivate(_ context.Context, id int64, userID *int64) (models.NewsletterSubscriber, error) {
	return m.update(id, func(s *models.NewsletterSubscriber) {
		s.IsActive = true
		s.SubscribedDate = time.Now()
		s.UnsubscribedDate = nil
		if userID != nil {
			s.UserID = userID
		}
	})
}

func (m *memoryStore) LinkUser(_ context.Context, id, userID int64) (models.NewsletterSubscriber, error) {
	return m.update(id, func(s *models.NewsletterSubscriber) {
		s.UserID = &userID
	})
}

func (m *memoryStore) Deactivate(_ context.Context, id int64) (models.NewsletterSubscriber, error) {
	return m.update(id, func(s *models.NewsletterSubscriber) {
		now := time.Now()
		s.IsActive = false
		s.UnsubscribedDate = &now
	})
}

func (m *memoryStore) MarkSent(_ context.Context, id int64, sentAt time.Time) error {
	_, err := m.update(id, func(s *models.NewsletterSubscriber) {
		s.LastEmailSent = &sentAt
	})
	return err
}

func (m *memoryStore) ListActive(_ context.Context) ([]models.NewsletterSubscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.NewsletterSubscriber, 0)
	for _, s := range m.subscribers {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memoryStore) CountActive(ctx context.Context) (int, error) {
	active, _ := m.ListActive(ctx)
	return len(active), nil
}

type recordingMailer struct {
	mu       sync.Mutex
	messages []Message
	failFor  map[string]bool
	err      error
}

func (m *recordingMailer) Send(_ context.Context, message Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	if m.failFor[message.ToEmail] {
		return errors.New("mailbox unavailable")
	}
	m.messages = append(m.messages, message)
	return nil
}

func (m *recordingMailer) sentTo(email string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Message, 0)
	for _, message := range m.messages {
		if message.ToEmail == email {
			out = append(out, message)
		}
	}
	return out
}

type memoryUsers struct {
	flags map[int64]bool
}

func (u *memoryUsers) SetNewsletterSubscribed(_ context.Context, userID int64, subscribed bool) (models.User, error) {
	if u.flags == nil {
		u.flags = make(map[int64]bool)
	}
	u.flags[userID] = subscribed
	return models.User{ID: userID, IsNewsletterSubscribed: subscribed}, nil
}

type memoryJournal struct {
	entries []models.NewsletterLog
	userIDs [][]int64
}

func (j *memoryJournal) Record(_ context.Context, entry models.NewsletterLog, userIDs []int64) (models.NewsletterLog, error) {
	entry.ID = int64(len(j.entries) + 1)
	entry.SentDate = time.Now()
	j.entries = append(j.entries, entry)
	j.userIDs = append(j.userIDs, userIDs)
	return entry, nil
}

type countingRecorder struct {
	ok     map[string]int
	failed map[string]int
}

func (r *countingRecorder) EmailSent(kind string, err error) {
	if r.ok == nil {
		r.ok = make(map[string]int)
		r.failed = make(map[string]int)
	}
	if err != nil {
		r.failed[kind]++
		return
	}
	r.ok[kind]++
}
