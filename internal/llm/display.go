package llm

import "strings"

// displayNames maps model ids to the names shown in the UI. Unknown ids
// fall back to a cleaned-up form of the id itself.
var displayNames = map[string]string{
	"gemini-2.5-flash":                          "Gemini 2.5 Flash",
	"gemini-2.0-flash":                          "Gemini 2.0 Flash",
	"gemini-2.5-flash-image-preview":            "Gemini 2.5 Flash Image",
	"gemini-2.0-flash-preview-image-generation": "Gemini 2.0 Flash Image",
}

// DisplayName returns the user-facing name for a model id.
func DisplayName(model string) string {
	if model == "" {
		return ""
	}
	if name, ok := displayNames[model]; ok {
		return name
	}

	parts := strings.Split(model, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if p[0] >= 'a' && p[0] <= 'z' {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
