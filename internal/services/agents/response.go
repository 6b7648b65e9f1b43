package agents

import "strings"

// cleanModelResponse strips markdown fences and any prose surrounding
// the first JSON object in a model reply. Models are instructed to
// return bare JSON but routinely wrap it anyway.
func cleanModelResponse(raw string) string {
	content := strings.TrimSpace(raw)

	if idx := strings.Index(content, "```json"); idx != -1 {
		start := idx + len("```json")
		if end := strings.Index(content[start:], "```"); end != -1 {
			content = strings.TrimSpace(content[start : start+end])
		}
	} else if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		if len(lines) > 2 {
			content = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}

	if !strings.HasPrefix(content, "{") {
		if idx := strings.Index(content, "{"); idx != -1 {
			content = content[idx:]
		}
	}
	if !strings.HasSuffix(content, "}") {
		if idx := strings.LastIndex(content, "}"); idx != -1 {
			content = content[:idx+1]
		}
	}

	return strings.TrimSpace(content)
}

// truncateRunes bounds text to n runes without splitting a rune.
func truncateRunes(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
