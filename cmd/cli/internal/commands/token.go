package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfeidau/statuspage/internal/auth"
)

// TokenCmd mints a token for servers running with the hs256 provider.
type TokenCmd struct {
	Subject    string        `help:"Subject identifier" required:""`
	Email      string        `help:"Email claim, used when members are added by email" default:""`
	TTL        time.Duration `help:"Token lifetime" default:"1h"`
	SigningKey string        `help:"JWT signing key" required:"" env:"STATUSPAGE_AUTH_SECRET"`
}

func (t *TokenCmd) Run(ctx context.Context) error {
	token, err := auth.IssueToken(t.SigningKey, t.Subject, t.Email, t.TTL)
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}
