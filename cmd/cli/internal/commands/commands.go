package commands

import (
	"time"

	"github.com/wolfeidau/statuspage/internal/client"
)

type Globals struct {
	Debug   bool
	Version string
}

// ServerFlags are shared by every command that talks to the API.
type ServerFlags struct {
	BaseURL string        `help:"Status page API base URL" default:"http://localhost:5000" env:"STATUSPAGE_URL"`
	Timeout time.Duration `help:"Request timeout" default:"30s"`
}

func (s ServerFlags) client(globals *Globals, token string) *client.Client {
	return client.New(client.Config{
		ServerURL: s.BaseURL,
		Timeout:   s.Timeout,
		Token:     token,
		Debug:     globals.Debug,
	})
}
