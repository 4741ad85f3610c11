package cli

import (
	stderrors "errors"

	kernelerrors "github.com/packetgov/kernel/internal/errors"
)

// Exit codes. 0 is success; 1 is a generic/unclassified error. The rest
// mirror the kernel's error-kind table so scripts can branch on cause
// without scraping stderr text.
const (
	ExitOK                 = 0
	ExitGeneric            = 1
	ExitNotFound           = 10
	ExitPreconditionFailed = 11
	ExitBlockedByDeps      = 12
	ExitPolicyDenied       = 13
	ExitSchemaMismatch     = 14
	ExitLockTimeout        = 15
	ExitIOError            = 16
	ExitIntegrityError     = 17
)

// ExitCodeForError maps a kernel error to a process exit code, consulting
// the DomainError classification when present and falling back to a
// generic failure code otherwise.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitOK
	}
	var domainErr *kernelerrors.DomainError
	if stderrors.As(err, &domainErr) {
		switch domainErr.Kind {
		case kernelerrors.KindNotFound:
			return ExitNotFound
		case kernelerrors.KindPreconditionFailed:
			return ExitPreconditionFailed
		case kernelerrors.KindBlockedByDeps:
			return ExitBlockedByDeps
		case kernelerrors.KindPolicyDenied:
			return ExitPolicyDenied
		case kernelerrors.KindSchemaMismatch:
			return ExitSchemaMismatch
		case kernelerrors.KindLockTimeout:
			return ExitLockTimeout
		case kernelerrors.KindIOError:
			return ExitIOError
		case kernelerrors.KindIntegrityError:
			return ExitIntegrityError
		}
	}
	return ExitGeneric
}
