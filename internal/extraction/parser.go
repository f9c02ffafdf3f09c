package extraction

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// ModelCaller sends a document to the extraction model and returns the raw
// response text. The concrete implementation calls Gemini; tests substitute
// a fake.
type ModelCaller interface {
	Call(ctx context.Context, docBytes []byte, mimeType string) (string, error)
}

// GeminiCaller calls the Gemini API with the document inlined.
type GeminiCaller struct {
	ModelName string
}

func NewGeminiCaller() *GeminiCaller {
	return &GeminiCaller{ModelName: DefaultModelName}
}

// Call sends the statement bytes plus the extraction prompt and returns the
// model's text response.
func (c *GeminiCaller) Call(ctx context.Context, docBytes []byte, mimeType string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("extraction: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: extractionPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     docBytes,
					},
				},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, c.ModelName, contents, nil)
	if err != nil {
		return "", fmt.Errorf("extraction: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return "", fmt.Errorf("extraction: empty response from model")
	}
	return rawText, nil
}

// parseModelResponse locates the JSON object in the model's free-text
// response and decodes it. The whole response is rejected when no object is
// found or it does not parse; there is no partial recovery at this level.
func parseModelResponse(raw string) (map[string]interface{}, error) {
	span, err := extractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(span), &parsed); err != nil {
		return nil, fmt.Errorf("extraction: unmarshal model JSON: %w", err)
	}
	return parsed, nil
}

// extractJSONObject returns the first balanced {...} span in s. The scan is
// string and escape aware, so braces inside JSON string values do not
// unbalance it. Models often wrap their output in prose or code fences;
// everything around the object is ignored.
func extractJSONObject(s string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return s[start : i+1], nil
				}
			}
		}
	}

	return "", fmt.Errorf("extraction: no JSON object found in model response")
}
