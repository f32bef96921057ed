// Package expand normalizes queue message bodies into platform jobs.
package expand

import (
	"encoding/json"

	"app/internal/model"
)

// Jobs turns one raw message body into an ordered list of platform jobs.
// Pure function, no I/O.
//
// Bodies that already carry a singular payload.platform are passed through
// as exactly one job (back-compat path). publish_content bodies with a
// platforms list fan out into one job per platform. Anything else yields
// an empty list and the caller falls back to model.RawJob.
func Jobs(body []byte) []model.PlatformJob {
	var probe struct {
		Payload struct {
			Platform string `json:"platform"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && probe.Payload.Platform != "" {
		var job model.PlatformJob
		if err := json.Unmarshal(body, &job); err == nil {
			return []model.PlatformJob{job}
		}
	}

	var req model.PublishRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil
	}
	if req.Type != "publish_content" || len(req.Platforms) == 0 {
		return nil
	}

	jobs := make([]model.PlatformJob, 0, len(req.Platforms))
	for _, platform := range req.Platforms {
		jobs = append(jobs, campaignJob(&req, platform))
	}
	return jobs
}

func campaignJob(req *model.PublishRequest, platform string) model.PlatformJob {
	content := &model.JobContent{
		Title:       req.Copy.Title,
		Description: req.Copy.BaseCaption,
		Tags:        req.Copy.Hashtags,
		ContentType: defaultContentType(platform),
	}
	for _, asset := range req.Assets {
		if asset.Path != "" {
			content.MediaURLs = append(content.MediaURLs, asset.Path)
		}
	}

	payload := model.JobPayload{
		Platform:   platform,
		CampaignID: req.CampaignID,
		Content:    content,
		Options:    req.Options,
	}
	if platform == "reddit" && req.Reddit != nil {
		content.IsNSFW = req.Reddit.NSFW
		if len(req.Reddit.Subreddits) > 0 {
			payload.Subreddit = req.Reddit.Subreddits[0]
		}
	}

	return model.PlatformJob{
		Type:    req.Type,
		UserID:  req.UserID,
		Payload: payload,
	}
}

// TikTok only accepts video; every other platform, reddit included,
// publishes stills by default.
func defaultContentType(platform string) string {
	if platform == "tiktok" {
		return "video"
	}
	return "photos"
}
