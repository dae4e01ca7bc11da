package editor

import "github.com/atotto/clipboard"

// systemClipboard is the default Clipboard backed by the operating system.
type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }
