package fwupdate

import (
	"errors"
	"os"
	"os/exec"

	"github.com/google/shlex"
)

// ShellRun executes a post-install command line. The string is split
// into words following shell quoting rules and run directly.
func ShellRun(cmd string) error {
	words, err := shlex.Split(cmd)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return errors.New("empty command")
	}

	c := exec.Command(words[0], words[1:]...)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}
