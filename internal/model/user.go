package model

import "github.com/cccrawl/crawler/internal/identity"

// UserConfig is a registration-time record: it binds a person to the
// integrations they've registered. The crawl loop never reads it — it
// drives off the integrations collection directly (see the Store
// contract); UserConfig exists only so registration has somewhere to
// write integrations atomically alongside owner metadata.
type UserConfig struct {
	UID          string        `bson:"id"`
	Name         string        `bson:"name"`
	Email        string        `bson:"email"`
	Integrations []Integration `bson:"integrations"`
}

// NewUserConfig computes UID deterministically from email, so
// re-registering the same address is idempotent.
func NewUserConfig(name, email string, integrations []Integration) (UserConfig, error) {
	uid, err := identity.Hash(email)
	if err != nil {
		return UserConfig{}, err
	}

	return UserConfig{
		UID:          uid,
		Name:         name,
		Email:        email,
		Integrations: integrations,
	}, nil
}
