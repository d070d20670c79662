package cli

import (
	"time"

	"github.com/atotto/clipboard"
)

// clipboardWrite and clipboardRead are test seams for clipboard access.
var clipboardWrite = clipboard.WriteAll
var clipboardRead = clipboard.ReadAll

// copyToClipboard puts value on the system clipboard and schedules a wipe
// after clearAfter. The wipe only clears the clipboard if it still holds the
// copied value, so a later copy by the user is left alone.
func copyToClipboard(value string, clearAfter time.Duration) error {
	if err := clipboardWrite(value); err != nil {
		return err
	}
	if clearAfter <= 0 {
		return nil
	}

	time.AfterFunc(clearAfter, func() {
		current, err := clipboardRead()
		if err == nil && current == value {
			_ = clipboardWrite("")
		}
	})
	return nil
}
