// Package locale renders the bot's outbound messages in the user's language.
// Texts are MarkdownV2; dynamic values are escaped before interpolation.
package locale

import "strings"

// Tag is an IETF language code as supplied by Telegram (language_code).
type Tag string

const (
	English Tag = "en"
	Russian Tag = "ru"
)

// Normalize maps an arbitrary language_code to a supported Tag.
func Normalize(code string) Tag {
	if strings.HasPrefix(strings.ToLower(code), "ru") {
		return Russian
	}
	return English
}

var markdownEscaper = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(", ")", "\\)",
	"~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
	"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}", ".", "\\.", "!", "\\!",
)

// EscapeMarkdown escapes the characters MarkdownV2 treats as markup.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Greeting is the reply to /start: it points the user at the mini app.
func Greeting(lang Tag, botName string) string {
	switch lang {
	case Russian:
		return "Привет\\! Откройте мини\\-приложение, чтобы выбрать даты: " +
			"https://t\\.me/" + EscapeMarkdown(botName) + "/app"
	default:
		return "Hi\\! Open the mini app to pick your dates: " +
			"https://t\\.me/" + EscapeMarkdown(botName) + "/app"
	}
}

// CalendarLink is sent to the calendar owner right after saving.
func CalendarLink(lang Tag) string {
	switch lang {
	case Russian:
		return "Ваш календарь сохранён\\. Перешлите следующее сообщение тем, с кем хотите им поделиться\\."
	default:
		return "Your calendar is saved\\. Forward the next message to the people you want to share it with\\."
	}
}

// CalendarShare is the forwardable message carrying the public calendar link.
func CalendarShare(lang Tag, userName, botName, ref string) string {
	name := EscapeMarkdown(userName)
	link := "https://t\\.me/" + EscapeMarkdown(botName) + "/app?startapp=" + EscapeMarkdown(ref)
	switch lang {
	case Russian:
		if name == "" {
			return "С вами поделились календарём: " + link
		}
		return name + " делится с вами календарём: " + link
	default:
		if name == "" {
			return "A calendar was shared with you: " + link
		}
		return name + " shared a calendar with you: " + link
	}
}
