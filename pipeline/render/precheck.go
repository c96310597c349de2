package render

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Precheck validates a candidate document description locally before it is
// submitted to the external renderer.
//
// It catches the common structural errors the renderer rejects:
//   - Invalid YAML syntax
//   - Missing required keys (root "cv" mapping, cv.name, cv.email)
//   - Wrong date token shape (must be YYYY-MM or "present")
//   - Website URLs without a protocol
//   - Highlights that aren't lists of strings
//
// Returns ok=false with a detailed issue description on the first failed
// check. A passing precheck does not guarantee the renderer accepts the
// candidate; it only avoids obviously wasted round-trips.
func Precheck(candidate string) (ok bool, issue string) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal([]byte(candidate), &doc); err != nil {
		return false, fmt.Sprintf("YAML syntax error: %v", err)
	}
	if doc == nil {
		return false, "document must be a mapping at root level"
	}

	cvRaw, exists := doc["cv"]
	if !exists {
		return false, "missing required 'cv' key at root level"
	}
	cv, isMap := cvRaw.(map[string]interface{})
	if !isMap {
		return false, "'cv' must be a mapping"
	}

	for _, field := range []string{"name", "email"} {
		if _, present := cv[field]; !present {
			return false, fmt.Sprintf("missing required field: cv.%s", field)
		}
	}

	if websiteRaw, present := cv["website"]; present {
		website, isStr := websiteRaw.(string)
		if !isStr {
			return false, "cv.website must be a string"
		}
		if !urlPattern.MatchString(website) {
			return false, fmt.Sprintf("cv.website must include protocol (http:// or https://): %q", website)
		}
	}

	if sectionsRaw, present := cv["sections"]; present {
		sections, isMap := sectionsRaw.(map[string]interface{})
		if isMap {
			if issue := precheckSections(sections); issue != "" {
				return false, issue
			}
		}
	}

	return true, ""
}

var (
	urlPattern  = regexp.MustCompile(`^https?://`)
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

// precheckSections checks date tokens and highlight shapes in every
// section entry. Returns the first issue found, or "".
func precheckSections(sections map[string]interface{}) string {
	for name, contentRaw := range sections {
		entries, isList := contentRaw.([]interface{})
		if !isList {
			continue
		}

		for idx, entryRaw := range entries {
			entry, isMap := entryRaw.(map[string]interface{})
			if !isMap {
				continue
			}

			for _, dateField := range []string{"start_date", "end_date"} {
				dateRaw, present := entry[dateField]
				if !present {
					continue
				}
				date, isStr := dateRaw.(string)
				if !isStr {
					return fmt.Sprintf("sections.%s[%d].%s must be a string", name, idx, dateField)
				}
				if date == "present" {
					continue
				}
				if !datePattern.MatchString(date) {
					return fmt.Sprintf(
						"invalid date format in sections.%s[%d].%s: %q (expected YYYY-MM, e.g. '2025-07', or 'present')",
						name, idx, dateField, date)
				}
			}

			if highlightsRaw, present := entry["highlights"]; present {
				highlights, isList := highlightsRaw.([]interface{})
				if !isList {
					return fmt.Sprintf("sections.%s[%d].highlights must be a list of strings", name, idx)
				}
				for hIdx, h := range highlights {
					if _, isStr := h.(string); !isStr {
						return fmt.Sprintf("sections.%s[%d].highlights[%d] must be a string", name, idx, hIdx)
					}
				}
			}
		}
	}
	return ""
}
