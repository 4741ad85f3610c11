package cli_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/packetgov/kernel/internal/cli"
	kernelerrors "github.com/packetgov/kernel/internal/errors"
)

func TestExitCodeForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, cli.ExitOK},
		{"unclassified", errors.New("boom"), cli.ExitGeneric},
		{"not found", kernelerrors.NewDomainError(kernelerrors.KindNotFound, kernelerrors.ErrPacketNotFound), cli.ExitNotFound},
		{"blocked by deps", kernelerrors.NewDomainError(kernelerrors.KindBlockedByDeps, kernelerrors.ErrBlockedByDeps), cli.ExitBlockedByDeps},
		{"policy denied", kernelerrors.NewDomainError(kernelerrors.KindPolicyDenied, kernelerrors.ErrPolicyDenied), cli.ExitPolicyDenied},
		{"lock timeout", kernelerrors.NewDomainError(kernelerrors.KindLockTimeout, kernelerrors.ErrLockTimeout), cli.ExitLockTimeout},
		{"integrity error", kernelerrors.NewDomainError(kernelerrors.KindIntegrityError, kernelerrors.ErrIntegrityError), cli.ExitIntegrityError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, cli.ExitCodeForError(tt.err))
		})
	}
}
