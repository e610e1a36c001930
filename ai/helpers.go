package ai

import "strings"

// CleanResponse removes any newlines from the response
func CleanResponse(resp string) string {
	resp = strings.ReplaceAll(resp, "\n", " ")
	resp = strings.ReplaceAll(resp, "<|im_start|>", "")
	resp = strings.ReplaceAll(resp, "<|im_end|>", "")
	resp = strings.TrimPrefix(resp, "!") // remove any leading ! so that we dont trigger commands
	resp = strings.TrimPrefix(resp, "/") // remove any leading / so that we dont trigger commands
	return strings.TrimSpace(resp)
}

// CleanJSON strips chat template tokens and markdown code fences around a JSON payload.
// Newlines are kept since they are legal JSON whitespace.
func CleanJSON(resp string) string {
	resp = strings.ReplaceAll(resp, "<|im_start|>", "")
	resp = strings.ReplaceAll(resp, "<|im_end|>", "")
	resp = strings.TrimSpace(resp)

	if start := strings.Index(resp, "```"); start >= 0 {
		body := resp[start+3:]
		// drop the fence language tag, e.g. ```json
		if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "[{") {
			body = body[nl+1:]
		}
		if end := strings.Index(body, "```"); end >= 0 {
			body = body[:end]
		}
		resp = body
	}
	return strings.TrimSpace(resp)
}
