// Package open hands URLs to the system's default handler or to a named application.
package open

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cinegate/cinegate/constant"
)

// Start opens input without waiting for the handler to exit.
// An empty app means the system default handler.
func Start(input, app string) error {
	cmd, err := Command(runtime.GOOS, input, app)
	if err != nil {
		return err
	}
	return cmd.Start()
}

// Command builds the invocation that opens input on goos.
func Command(goos, input, app string) (*exec.Cmd, error) {
	if app != "" {
		switch goos {
		case constant.Windows:
			// cmd's start treats & as a command separator.
			escaped := strings.ReplaceAll(input, "&", "^&")
			return exec.Command("cmd", "/C", "start", "", app, escaped), nil
		case constant.Darwin:
			return exec.Command("open", "-a", app, input), nil
		case constant.Linux, constant.Android:
			return exec.Command(app, input), nil
		}
		return nil, fmt.Errorf("unsupported OS: %s", goos)
	}

	switch goos {
	case constant.Windows:
		rundll := filepath.Join(os.Getenv("SYSTEMROOT"), "System32", "rundll32.exe")
		return exec.Command(rundll, "url.dll,FileProtocolHandler", input), nil
	case constant.Darwin:
		return exec.Command("open", input), nil
	case constant.Linux:
		return exec.Command("xdg-open", input), nil
	case constant.Android:
		return exec.Command("termux-open", input), nil
	}
	return nil, fmt.Errorf("unsupported OS: %s", goos)
}
