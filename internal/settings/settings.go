// Package settings loads, validates and stores per-user preferences.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rohmanhakim/newsletter-triage/internal/database"
)

type Store interface {
	SettingsBody(ctx context.Context, userID string) ([]byte, error)
	PutSettingsBody(ctx context.Context, userID string, body []byte) error
}

type Service struct {
	store         Store
	validate      *validator.Validate
	defaultFolder string
}

func NewService(store Store, defaultFolder string) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Service{
		store:         store,
		validate:      v,
		defaultFolder: defaultFolder,
	}
}

// Get returns the stored settings. Fields never stored keep their defaults.
func (s *Service) Get(ctx context.Context, userID string) (Settings, error) {
	current := Defaults(s.defaultFolder)
	body, err := s.store.SettingsBody(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return current, nil
	}
	if err != nil {
		return Settings{}, err
	}
	if err := json.Unmarshal(body, &current); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return current, nil
}

// Update validates next and stores it. Invalid settings are never persisted.
func (s *Service) Update(ctx context.Context, userID string, next Settings) (Settings, error) {
	next = next.normalized()
	if err := s.Validate(next); err != nil {
		return Settings{}, err
	}
	body, err := json.Marshal(next)
	if err != nil {
		return Settings{}, fmt.Errorf("encode settings: %w", err)
	}
	if err := s.store.PutSettingsBody(ctx, userID, body); err != nil {
		return Settings{}, err
	}
	return next, nil
}

// Set changes a single key given as text, as the CLI receives it.
func (s *Service) Set(ctx context.Context, userID, key, value string) (Settings, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return Settings{}, err
	}
	next, err := current.With(key, value)
	if err != nil {
		return Settings{}, err
	}
	return s.Update(ctx, userID, next)
}

func (s *Service) Validate(settings Settings) error {
	err := s.validate.Struct(settings)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	out := &ValidationError{}
	for _, e := range fieldErrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   e.Field(),
			Message: formatFieldError(e),
		})
	}
	return out
}

// Keys lists the names accepted by With.
func Keys() []string {
	return []string{
		"sync_enabled",
		"sync_interval_minutes",
		"mail_folder",
		"sender_allowlist",
		"max_messages_per_sync",
		"mark_seen",
		"archive_markdown",
	}
}

// With returns a copy with key set from its text form. The sender allowlist
// takes a comma separated list; an empty value clears it.
func (s Settings) With(key, value string) (Settings, error) {
	out := s
	value = strings.TrimSpace(value)
	var err error
	switch key {
	case "sync_enabled":
		out.SyncEnabled, err = strconv.ParseBool(value)
	case "sync_interval_minutes":
		out.SyncIntervalMinutes, err = strconv.Atoi(value)
	case "mail_folder":
		out.MailFolder = value
	case "sender_allowlist":
		out.SenderAllowlist = []string{}
		for _, entry := range strings.Split(value, ",") {
			if entry = strings.TrimSpace(entry); entry != "" {
				out.SenderAllowlist = append(out.SenderAllowlist, entry)
			}
		}
	case "max_messages_per_sync":
		out.MaxMessagesPerSync, err = strconv.Atoi(value)
	case "mark_seen":
		out.MarkSeen, err = strconv.ParseBool(value)
	case "archive_markdown":
		out.ArchiveMarkdown, err = strconv.ParseBool(value)
	default:
		return Settings{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %s: %v", ErrInvalidSettings, key, err)
	}
	return out, nil
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", e.Param())
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}
