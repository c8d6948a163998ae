package analyzer

import (
	"encoding/json"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"

	"github.com/charlesng35/resumex/pkg/logger"
)

var pdfURLPattern = regexp.MustCompile(`(?i)https?://\S+\.pdf\S*`)

// ParseReport normalises a webhook response body. Shapes are tried in order:
//
//  1. a JSON object is the report itself;
//  2. a JSON array whose first element has an "output" string holding the
//     report as JSON, with the URL taken from the element or the report;
//  3. a JSON string is unwrapped and parsed as raw text;
//  4. raw text containing a PDF link: the link is cut out, the rest is parsed
//     as a JSON object and the link becomes the URL.
//
// Anything else yields an empty report. ParseReport never fails.
func ParseReport(body []byte) Report {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return parseText(string(body))
	}
	return fromValue(decoded)
}

func fromValue(value any) Report {
	switch v := value.(type) {
	case map[string]any:
		return decodeReport(v)
	case []any:
		return fromArray(v)
	case string:
		return parseText(v)
	default:
		return Report{}.normalise()
	}
}

func fromArray(items []any) Report {
	if len(items) == 0 {
		return Report{}.normalise()
	}
	first, ok := items[0].(map[string]any)
	if !ok || !truthy(first["output"]) {
		return Report{}.normalise()
	}

	var parsed map[string]any
	if output, ok := first["output"].(string); ok {
		parsed = parseObject(output)
	}
	report := decodeReport(parsed)
	if url := stringValue(first["url"]); url != "" {
		report.URL = url
	}
	return report
}

func parseText(raw string) Report {
	url := pdfURLPattern.FindString(raw)

	rest := raw
	if url != "" {
		rest = strings.Replace(raw, url, "", 1)
	}

	report := decodeReport(parseObject(strings.TrimSpace(rest)))
	report.URL = url
	return report
}

// parseObject decodes text as a JSON object, returning nil for anything else.
func parseObject(text string) map[string]any {
	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil
	}
	return out
}

// decodeReport maps a loosely typed object onto Report. Fields that cannot be
// decoded are left at their zero value.
func decodeReport(source map[string]any) Report {
	var report Report
	if len(source) == 0 {
		return report.normalise()
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &report,
		WeaklyTypedInput: true,
		DecodeHook:       lenientNumberHook,
	})
	if err != nil {
		return report.normalise()
	}
	if err := decoder.Decode(source); err != nil {
		logger.WithModule("analyzer").Debug("partial report decode", zap.Error(err))
	}

	return report.normalise()
}

// lenientNumberHook turns unparseable strings and nulls into 0 for float
// fields, the way a loose numeric coercion would.
func lenientNumberHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Float64 {
		return data, nil
	}
	switch v := data.(type) {
	case nil:
		return 0.0, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0.0, nil
		}
		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0.0, nil
		}
		return n, nil
	}
	return data, nil
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case float64:
		return v != 0
	default:
		return true
	}
}

func stringValue(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}
