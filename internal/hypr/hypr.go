// Package hypr wraps the hyprctl calls hark needs: client geometry, window
// placement, and compositor notifications.
package hypr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// SessionActive reports whether the process runs inside a Hyprland session.
func SessionActive() bool {
	return strings.TrimSpace(os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")) != ""
}

// hyprctl runs one invocation and returns stdout. Failures carry stderr, or
// stdout when hyprctl reported on it instead.
func hyprctl(ctx context.Context, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "hyprctl", args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		if detail == "" {
			return nil, fmt.Errorf("hyprctl %s: %w", strings.Join(args, " "), err)
		}
		return nil, fmt.Errorf("hyprctl %s: %w (%s)", strings.Join(args, " "), err, detail)
	}
	return stdout.Bytes(), nil
}

// dispatch runs `hyprctl --quiet dispatch <args>`.
func dispatch(ctx context.Context, args ...string) error {
	_, err := hyprctl(ctx, append([]string{"--quiet", "dispatch"}, args...)...)
	return err
}
