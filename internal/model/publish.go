package model

import "encoding/json"

// PublishRequest is the parsed body of a multi-platform campaign message
// (shape B). Single-platform messages (shape A) unmarshal directly into
// PlatformJob instead.
type PublishRequest struct {
	Type       string          `json:"type"`
	UserID     string          `json:"userId"`
	CampaignID string          `json:"campaign_id"`
	Platforms  []string        `json:"platforms"`
	Copy       CampaignCopy    `json:"copy"`
	Assets     []CampaignAsset `json:"assets"`
	Reddit     *RedditOptions  `json:"reddit,omitempty"`
	Options    map[string]any  `json:"options,omitempty"`
}

type CampaignCopy struct {
	Title       string   `json:"title"`
	BaseCaption string   `json:"base_caption"`
	Hashtags    []string `json:"hashtags"`
}

type CampaignAsset struct {
	Path string `json:"path"`
}

type RedditOptions struct {
	Subreddits []string `json:"subreddits"`
	NSFW       bool     `json:"nsfw"`
}

// PlatformJob is one (request, platform) unit of work handed to the
// automation engine. For unrecognized message bodies the raw bytes are
// carried through untouched so the engine sees exactly what was queued.
type PlatformJob struct {
	Type    string     `json:"type"`
	UserID  string     `json:"userId,omitempty"`
	Payload JobPayload `json:"payload"`

	raw json.RawMessage
}

type JobPayload struct {
	Platform   string         `json:"platform,omitempty"`
	CampaignID string         `json:"campaignId,omitempty"`
	ContentID  string         `json:"contentId,omitempty"`
	Content    *JobContent    `json:"content,omitempty"`
	Subreddit  string         `json:"subreddit,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
}

type JobContent struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	MediaURLs   []string `json:"mediaUrls,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	ContentType string   `json:"contentType,omitempty"`
	IsNSFW      bool     `json:"isNsfw,omitempty"`
}

// RawJob wraps an unrecognized message body as a single passthrough job.
// Identifying fields are parsed best-effort so idempotency keys stay
// meaningful even for bodies the expander does not understand.
func RawJob(body []byte) PlatformJob {
	var job PlatformJob
	_ = json.Unmarshal(body, &job)
	job.raw = json.RawMessage(body)
	return job
}

// EngineBytes returns the JSON handed to the automation engine: the raw
// body for passthrough jobs, the marshaled job otherwise.
func (j PlatformJob) EngineBytes() ([]byte, error) {
	if j.raw != nil {
		return j.raw, nil
	}
	return json.Marshal(j)
}

// ExecutionResult is the engine's final stdout line. Only OK=true counts
// as success.
type ExecutionResult struct {
	OK        bool   `json:"ok"`
	Platform  string `json:"platform,omitempty"`
	PostID    string `json:"postId,omitempty"`
	Permalink string `json:"permalink,omitempty"`
	Error     string `json:"error,omitempty"`
}

// PublishHistoryRecord is the append-only audit trail of a successful
// publish. Best-effort only; never part of the correctness contract.
type PublishHistoryRecord struct {
	IdempotencyKey string `json:"idempotency_key" dynamodbav:"idempotency_key"`
	Platform       string `json:"platform" dynamodbav:"platform"`
	CampaignID     string `json:"campaign_id" dynamodbav:"campaign_id"`
	ContentID      string `json:"content_id" dynamodbav:"content_id"`
	PostID         string `json:"post_id" dynamodbav:"post_id"`
	Permalink      string `json:"permalink" dynamodbav:"permalink"`
}
