// Package provisioning creates XMPP accounts for simulation agents on an
// external prosody server. The server runs in a docker container and
// accounts are managed through prosodyctl inside it.
package provisioning

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/andrescamacho/skycourier-go/internal/infrastructure/config"
	"github.com/andrescamacho/skycourier-go/internal/infrastructure/logging"
)

// ProsodyProvisioner registers one XMPP account per agent. Accounts that
// already exist are left untouched so repeated runs reuse them.
type ProsodyProvisioner struct {
	containerID string
	domain      string
	password    string
}

// NewProsodyProvisioner creates a provisioner for the container named in
// the configuration.
func NewProsodyProvisioner(cfg config.ProvisioningConfig) *ProsodyProvisioner {
	return &ProsodyProvisioner{
		containerID: cfg.ContainerID,
		domain:      cfg.Domain,
		password:    cfg.Password,
	}
}

// EnsureAccounts registers every agent account that does not exist yet.
// Progress is reported through the context logger.
func (p *ProsodyProvisioner) EnsureAccounts(ctx context.Context, agentIDs []string) error {
	logger := logging.FromContext(ctx)
	for _, id := range agentIDs {
		exists, err := p.accountExists(ctx, id)
		if err != nil {
			return err
		}
		if exists {
			logger.Debug().Str("account", id).Msg("account already exists")
			continue
		}
		if err := p.register(ctx, id); err != nil {
			return err
		}
		logger.Info().Str("account", id).Str("domain", p.domain).Msg("account registered")
	}
	return nil
}

// accountExists asks prosodyctl about the account; a zero exit code means
// it is already registered.
func (p *ProsodyProvisioner) accountExists(ctx context.Context, agentID string) (bool, error) {
	jid := fmt.Sprintf("%s@%s", agentID, p.domain)
	cmd := exec.CommandContext(ctx, "docker", "exec", p.containerID, "prosodyctl", "about", jid)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, fmt.Errorf("failed to query account %s: %w", jid, err)
	}
	return true, nil
}

func (p *ProsodyProvisioner) register(ctx context.Context, agentID string) error {
	cmd := exec.CommandContext(ctx, "docker", "exec", p.containerID,
		"prosodyctl", "register", agentID, p.domain, p.password)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to register account %s: %w (%s)", agentID, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// NoopProvisioner satisfies the provisioning port when the simulation runs
// with in-process messaging only.
type NoopProvisioner struct{}

// EnsureAccounts does nothing.
func (NoopProvisioner) EnsureAccounts(context.Context, []string) error { return nil }
