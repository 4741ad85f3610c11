package auditmirror

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	kernelerrors "github.com/packetgov/kernel/internal/errors"
)

// CLIRunner implements Runner by shelling out to the git CLI, the same
// exec.CommandContext pattern the kernel's source material uses for
// every other git operation.
type CLIRunner struct {
	workDir string
}

// NewCLIRunner returns a CLIRunner rooted at workDir, verifying it is a
// git repository.
func NewCLIRunner(ctx context.Context, workDir string) (*CLIRunner, error) {
	if workDir == "" {
		return nil, fmt.Errorf("auditmirror: work directory cannot be empty: %w", kernelerrors.ErrEmptyValue)
	}
	r := &CLIRunner{workDir: workDir}
	if _, err := r.run(ctx, "rev-parse", "--git-dir"); err != nil {
		return nil, fmt.Errorf("auditmirror: %s is not a git repository: %w", workDir, err)
	}
	return r, nil
}

// Add stages paths.
func (r *CLIRunner) Add(ctx context.Context, paths []string) error {
	args := append([]string{"add", "--"}, paths...)
	_, err := r.run(ctx, args...)
	return err
}

// Commit creates a commit with subject as its message header, followed
// by trailers rendered as sorted "Key: value" lines, matching the
// conventional-commit trailer footer format.
func (r *CLIRunner) Commit(ctx context.Context, subject string, trailers map[string]string) error {
	if subject == "" {
		return fmt.Errorf("auditmirror: commit subject cannot be empty: %w", kernelerrors.ErrEmptyValue)
	}

	keys := make([]string, 0, len(trailers))
	for k := range trailers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var body strings.Builder
	body.WriteString(subject)
	if len(keys) > 0 {
		body.WriteString("\n\n")
		for _, k := range keys {
			fmt.Fprintf(&body, "%s: %s\n", k, trailers[k])
		}
	}

	_, err := r.run(ctx, "commit", "-m", body.String(), "--cleanup=strip")
	return err
}

func (r *CLIRunner) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...) //nolint:gosec // args are constructed internally, not user input
	cmd.Dir = r.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if stderr.Len() > 0 {
			return "", fmt.Errorf("git %s failed: %s", args[0], strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("git %s failed: %w", args[0], err)
	}
	return strings.TrimSpace(stdout.String()), nil
}
