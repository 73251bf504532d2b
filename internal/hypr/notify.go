package hypr

import (
	"context"
	"strconv"
	"strings"
)

const defaultNotifyColor = "rgb(89b4fa)"

// Notify shows a compositor toast. icon is hyprctl's numeric icon kind and
// timeoutMS how long it stays up.
func Notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	color = strings.TrimSpace(color)
	if color == "" {
		color = defaultNotifyColor
	}
	return dispatch(ctx, "notify", strconv.Itoa(icon), strconv.Itoa(timeoutMS), color, text)
}

// DismissNotify clears every toast Hyprland is showing.
func DismissNotify(ctx context.Context) error {
	return dispatch(ctx, "dismissnotify")
}
