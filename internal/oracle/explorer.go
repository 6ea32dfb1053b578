package oracle

import (
	"context"
	"fmt"
	"strings"

	"spiritus-backend/internal/domain"
	"spiritus-backend/internal/models"
)

var quickLinks = []string{"Yahweh", "Allah", "Zeus", "Enlil", "Osiris", "Quetzalcoatl"}

// Explorer profiles deities through the relay, one request per name.
type Explorer struct {
	relay Relay
}

func NewExplorer(relay Relay) *Explorer {
	return &Explorer{relay: relay}
}

// QuickLinks lists the deities offered without typing.
func QuickLinks() []string {
	return append([]string(nil), quickLinks...)
}

// Profile returns a plain-text profile. On failure the localized archive
// error text is returned alongside the error.
func (e *Explorer) Profile(ctx context.Context, name string, lang models.Language) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &domain.ValidationError{Message: "deity name is empty"}
	}

	prompt := fmt.Sprintf(
		"Profile the deity: %s. Focus on historical roots. Response in %s. No asterisks. Format as a clean descriptive text.",
		name, lang.EnglishName(),
	)

	text, err := e.relay.Chat(ctx, prompt, nil, lang)
	if err != nil {
		return lang.Pick("Erreur d'accès aux archives.", "Archive access error."), fmt.Errorf("profile %s: %w", name, err)
	}
	return text, nil
}
