// Package secrets keeps IMAP app passwords in the OS keychain.
package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups the application's entries in the OS keychain.
const KeyringService = "newsletter-triage"

var (
	ErrPasswordNotFound = errors.New("imap password not found")
	ErrEmptyAccount     = errors.New("keyring account name is empty")
	ErrEmptyPassword    = errors.New("password is empty")
)

// IMAPAccount is the keychain account name for a mailbox login.
func IMAPAccount(username, imapHost string) string {
	return fmt.Sprintf("imap:%s@%s", strings.ToLower(username), strings.ToLower(imapHost))
}

func GetIMAPPassword(account string) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", ErrEmptyAccount
	}
	pw, err := keyring.Get(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%w: %s", ErrPasswordNotFound, account)
	}
	if err != nil {
		return "", fmt.Errorf("read keychain: %w", err)
	}
	if strings.TrimSpace(pw) == "" {
		return "", fmt.Errorf("%w: %s", ErrPasswordNotFound, account)
	}
	return pw, nil
}

func SetIMAPPassword(account, password string) error {
	if strings.TrimSpace(account) == "" {
		return ErrEmptyAccount
	}
	if strings.TrimSpace(password) == "" {
		return ErrEmptyPassword
	}
	return keyring.Set(KeyringService, account, password)
}

// DeleteIMAPPassword removes the entry. Deleting a missing entry is not an error.
func DeleteIMAPPassword(account string) error {
	if strings.TrimSpace(account) == "" {
		return ErrEmptyAccount
	}
	err := keyring.Delete(KeyringService, account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}
