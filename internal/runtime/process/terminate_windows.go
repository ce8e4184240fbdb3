//go:build windows

package process

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

// requestTermination delivers CTRL_BREAK_EVENT to the child's process group.
// The child must share a console with the caller for the event to arrive.
func requestTermination(proc *os.Process) error {
	if proc == nil {
		return nil
	}
	if err := windows.GenerateConsoleCtrlEvent(windows.CTRL_BREAK_EVENT, uint32(proc.Pid)); err != nil {
		return fmt.Errorf("send ctrl-break to process %d: %w", proc.Pid, err)
	}
	return nil
}
