package indicator

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

type messages struct {
	listening  string
	processing string
	errorText  string
	alternate  string
}

// catalogs is ordered as the matcher's supported list; the first entry is
// the fallback.
var catalogs = []struct {
	tag  language.Tag
	text messages
}{
	{language.English, messages{
		listening:  "Listening…",
		processing: "Recognizing…",
		errorText:  "Speech recognition error",
		alternate:  "Alternate mode",
	}},
	{language.Chinese, messages{
		listening:  "正在聆听…",
		processing: "正在识别…",
		errorText:  "语音识别错误",
		alternate:  "备用模式",
	}},
}

var messageMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(catalogs))
	for i, c := range catalogs {
		tags[i] = c.tag
	}
	return language.NewMatcher(tags)
}()

// messagesFromEnv follows POSIX precedence: LC_ALL, LC_MESSAGES, then LANG.
func messagesFromEnv() messages {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
			return messagesFor(raw)
		}
	}
	return catalogs[0].text
}

// messagesFor picks a catalog for a POSIX locale such as "zh_TW.UTF-8".
func messagesFor(posix string) messages {
	_, index, confidence := messageMatcher.Match(parsePOSIXLocale(posix))
	if confidence == language.No {
		return catalogs[0].text
	}
	return catalogs[index].text
}

func parsePOSIXLocale(raw string) language.Tag {
	raw, _, _ = strings.Cut(strings.TrimSpace(raw), ".")
	raw, _, _ = strings.Cut(raw, "@")
	if raw == "" || raw == "C" || raw == "POSIX" {
		return language.Und
	}
	tag, err := language.Parse(strings.ReplaceAll(raw, "_", "-"))
	if err != nil {
		return language.Und
	}
	return tag
}
