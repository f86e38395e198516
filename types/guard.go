package types

// Fingerprint identifies a submission for duplicate detection.
type Fingerprint struct {
	Frequency  Frequency `json:"frequency"`
	ReturnType string    `json:"returnType"`
	Station    string    `json:"station"`
	Data       string    `json:"data"`
	FileName   string    `json:"fileName"`
}

// GuardState is the duplicate-submission state kept for one client profile.
type GuardState struct {
	// Last is nil until the first submission in the scope.
	Last *Fingerprint `json:"last,omitempty"`

	// Attempts counts consecutive repeats of Last.
	Attempts int `json:"attemptCount"`
}
