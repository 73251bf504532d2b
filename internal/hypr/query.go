package hypr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrWindowNotFound reports that no mapped client carries the requested class.
var ErrWindowNotFound = errors.New("hyprland window not found")

// Client is the subset of `hyprctl -j clients` used for overlay placement.
type Client struct {
	Address string `json:"address"`
	Class   string `json:"class"`
	Title   string `json:"title"`
	Mapped  bool   `json:"mapped"`
	Hidden  bool   `json:"hidden"`
	At      [2]int `json:"at"`
	Size    [2]int `json:"size"`
}

// Contains reports whether the point lies inside the client's frame.
func (c Client) Contains(x, y float64) bool {
	return x >= float64(c.At[0]) && x < float64(c.At[0]+c.Size[0]) &&
		y >= float64(c.At[1]) && y < float64(c.At[1]+c.Size[1])
}

// QueryClient returns the first mapped, visible client whose class matches.
func QueryClient(ctx context.Context, class string) (Client, error) {
	class = strings.TrimSpace(class)
	if class == "" {
		return Client{}, errors.New("window class must not be empty")
	}

	output, err := hyprctl(ctx, "-j", "clients")
	if err != nil {
		return Client{}, err
	}

	var clients []Client
	if err := json.Unmarshal(output, &clients); err != nil {
		return Client{}, fmt.Errorf("decode hyprctl clients json: %w", err)
	}
	for _, client := range clients {
		client.Address = strings.TrimSpace(client.Address)
		client.Class = strings.TrimSpace(client.Class)
		if client.Class != class || !client.Mapped || client.Hidden {
			continue
		}
		return client, nil
	}
	return Client{}, fmt.Errorf("%w: class %q", ErrWindowNotFound, class)
}

// MoveWindowExact places the window matching class at absolute pixel coordinates.
func MoveWindowExact(ctx context.Context, class string, x, y int) error {
	class = strings.TrimSpace(class)
	if class == "" {
		return errors.New("window class must not be empty")
	}
	target := fmt.Sprintf("exact %d %d,class:^(%s)$", x, y, regexp.QuoteMeta(class))
	return dispatch(ctx, "movewindowpixel", target)
}
