package render

import (
	"io"
	"log/slog"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	darkmode "github.com/thiagokokada/dark-mode-go"
)

type Theme int

const (
	ThemeAuto Theme = iota
	ThemeLight
	ThemeDark
	ThemeNone
)

func (t Theme) String() string {
	switch t {
	case ThemeLight:
		return "light"
	case ThemeDark:
		return "dark"
	case ThemeNone:
		return "none"
	default:
		return "auto"
	}
}

var detectDarkMode = darkmode.IsDarkMode

func ThemeFromString(raw string) Theme {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case ThemeDark.String():
		return ThemeDark
	case ThemeLight.String():
		return ThemeLight
	case ThemeNone.String():
		return ThemeNone
	default:
		return ThemeAuto
	}
}

// resolve turns ThemeAuto into light or dark using the desktop setting.
func (t Theme) resolve() Theme {
	if t != ThemeAuto {
		return t
	}
	if detectDarkMode != nil {
		dark, err := detectDarkMode()
		if err == nil {
			if dark {
				return ThemeDark
			}
			return ThemeLight
		}
		slog.Debug("detect dark-mode", slog.Any("error", err))
	}
	return ThemeLight
}

func styleForTheme(t Theme) *chroma.Style {
	name := "github"
	if t.resolve() == ThemeDark {
		name = "github-dark"
	}
	if st := styles.Get(name); st != nil {
		return st
	}
	return styles.Fallback
}

// Highlight writes a unified diff with terminal colors. ThemeNone writes it
// unchanged.
func Highlight(w io.Writer, diff string, theme Theme) error {
	if theme == ThemeNone {
		_, err := io.WriteString(w, diff)
		return err
	}
	lexer := lexers.Get("diff")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	iterator, err := lexer.Tokenise(nil, diff)
	if err != nil {
		return err
	}
	return formatter.Format(w, styleForTheme(theme), iterator)
}
