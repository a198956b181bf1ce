package output

import (
	"io"
	"os"
	"runtime"
)

// isTerminal checks if the writer is a terminal.
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return checkIsTerminal(f)
	}
	return false
}

// supportsColors checks the environment for color overrides.
func supportsColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	// Windows 10 and later consoles understand ANSI escapes.
	if runtime.GOOS == "windows" {
		return true
	}

	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

// UseColor reports whether output written to w should be colored.
func UseColor(w io.Writer, noColor bool) bool {
	if noColor {
		return false
	}
	return isTerminal(w) && supportsColors()
}
