// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// PirateStyle is the reserved persona value. Any other non-empty style is
// treated as a response language.
const PirateStyle = "Drunken Pirate"

// Prompt suffixes.
const (
	pirateSuffix   = " Respond like a drunken pirate, ye scurvy dog!"
	languagePrefix = " Respond to this in "
)

// StyleOptions are the choices offered by the settings panel.
var StyleOptions = []string{"Finnish", "Swedish", PirateStyle}

// BuildPrompt appends the instruction for style to text. The text itself is
// sent as typed.
func BuildPrompt(text, style string) string {
	switch {
	case style == "":
		return text
	case style == PirateStyle:
		return text + pirateSuffix
	default:
		return text + languagePrefix + style
	}
}

// NormalizeStyle cleans up a user-entered style.
//
// Whitespace is collapsed, "pirate" selects the persona and known options
// match case-insensitively. Two-letter language codes and tags with a
// region or script ("fi", "pt-BR", "zh-Hant") become English language
// names. Anything else is kept as typed.
func NormalizeStyle(v string) string {
	v = strings.Join(strings.Fields(v), " ")
	if v == "" {
		return ""
	}

	if strings.EqualFold(v, "pirate") || strings.EqualFold(v, PirateStyle) {
		return PirateStyle
	}
	for _, opt := range StyleOptions {
		if strings.EqualFold(v, opt) {
			return opt
		}
	}

	if name := languageName(v); name != "" {
		return name
	}
	return v
}

// languageName returns the English name for a language tag, or "" when v
// does not look like one. Bare three-letter codes are not mapped since
// many are ordinary words ("rap", "sms").
func languageName(v string) string {
	if len(v) > 8 || strings.Contains(v, " ") {
		return ""
	}
	base, _, hasSubtag := strings.Cut(strings.ReplaceAll(v, "_", "-"), "-")
	if len(base) != 2 && !hasSubtag {
		return ""
	}
	tag, err := language.Parse(v)
	if err != nil || tag == language.Und {
		return ""
	}
	return display.English.Tags().Name(tag)
}
