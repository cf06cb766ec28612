package settings

import (
	"strings"
	"time"
)

// Settings are the per-user sync and review preferences.
type Settings struct {
	SyncEnabled         bool     `json:"sync_enabled"`
	SyncIntervalMinutes int      `json:"sync_interval_minutes" validate:"min=5,max=1440"`
	MailFolder          string   `json:"mail_folder" validate:"required,max=255"`
	SenderAllowlist     []string `json:"sender_allowlist" validate:"dive,required,max=320"`
	MaxMessagesPerSync  int      `json:"max_messages_per_sync" validate:"min=1,max=500"`
	MarkSeen            bool     `json:"mark_seen"`
	ArchiveMarkdown     bool     `json:"archive_markdown"`
}

func Defaults(mailFolder string) Settings {
	if mailFolder == "" {
		mailFolder = "INBOX"
	}
	return Settings{
		SyncEnabled:         true,
		SyncIntervalMinutes: 60,
		MailFolder:          mailFolder,
		SenderAllowlist:     []string{},
		MaxMessagesPerSync:  50,
		MarkSeen:            false,
		ArchiveMarkdown:     true,
	}
}

func (s Settings) SyncInterval() time.Duration {
	return time.Duration(s.SyncIntervalMinutes) * time.Minute
}

// AllowsSender reports whether mail from address should be ingested.
// An empty allowlist admits every sender. Entries are either full addresses
// or domains, written as "example.com" or "@example.com".
func (s Settings) AllowsSender(address string) bool {
	if len(s.SenderAllowlist) == 0 {
		return true
	}
	address = strings.ToLower(strings.TrimSpace(address))
	domain := ""
	if at := strings.LastIndexByte(address, '@'); at >= 0 {
		domain = address[at+1:]
	}
	for _, entry := range s.SenderAllowlist {
		entry = strings.ToLower(entry)
		switch {
		case strings.HasPrefix(entry, "@"):
			if domain == entry[1:] {
				return true
			}
		case !strings.Contains(entry, "@"):
			if domain == entry {
				return true
			}
		case entry == address:
			return true
		}
	}
	return false
}

func (s Settings) normalized() Settings {
	out := s
	out.MailFolder = strings.TrimSpace(s.MailFolder)
	out.SenderAllowlist = make([]string, 0, len(s.SenderAllowlist))
	seen := make(map[string]struct{}, len(s.SenderAllowlist))
	for _, entry := range s.SenderAllowlist {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if _, dup := seen[entry]; dup {
			continue
		}
		seen[entry] = struct{}{}
		out.SenderAllowlist = append(out.SenderAllowlist, entry)
	}
	return out
}
