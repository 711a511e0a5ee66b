package webhook

import "context"

const DecodeWebhookSchemaVersion = 1

type DecodeWebhookAlternative struct {
	Rank       int     `json:"rank"`
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	AMScore    float64 `json:"am_score"`
	LMScore    float64 `json:"lm_score"`
}

type DecodeWebhookPayload struct {
	SchemaVersion int                        `json:"schema_version"`
	RequestID     string                     `json:"request_id"`
	Format        string                     `json:"format"`
	SampleRate    int                        `json:"sample_rate"`
	Samples       int                        `json:"samples"`
	AudioSeconds  float64                    `json:"audio_seconds"`
	Truncated     bool                       `json:"truncated"`
	Transcript    string                     `json:"transcript"`
	Alternatives  []DecodeWebhookAlternative `json:"alternatives"`
	DecodedAt     string                     `json:"decoded_at"`
}

type Sender interface {
	SendDecode(ctx context.Context, payload DecodeWebhookPayload) error
}
