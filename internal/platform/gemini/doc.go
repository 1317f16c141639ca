// Package gemini implements resume tailoring on top of Google's Gemini API.
//
// The tailor takes a job posting's description and produces a plain-text
// resume body emphasizing the experience the posting asks for. Calls retry
// transient API errors with exponential backoff; malformed or safety-blocked
// responses fail immediately since repeating the call cannot fix them.
package gemini
