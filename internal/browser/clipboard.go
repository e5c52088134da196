package browser

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// CopyURL places url on the system clipboard so it can be pasted into a
// browser on another machine.
func CopyURL(url string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard not supported on this system")
	}
	if err := clipboard.WriteAll(url); err != nil {
		return fmt.Errorf("failed to copy URL to clipboard: %w", err)
	}
	return nil
}
