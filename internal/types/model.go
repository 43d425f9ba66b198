package types

import (
	"encoding/json"
	"time"
)

// Record is one stored build notification.
type Record struct {
	ID         string          `json:"id"`
	ReceivedAt time.Time       `json:"receivedAt"`
	Payload    json.RawMessage `json:"payload"`
}

// Owner lists the repositories known under an account.
type Owner struct {
	Name  string   `json:"name"`
	Repos []string `json:"repos"`
}

// Repo summarises a repository and its recent notifications.
type Repo struct {
	Owner  string   `json:"owner"`
	Name   string   `json:"name"`
	Recent []Record `json:"recent"`
}

// BuildPayload is the subset of the Travis webhook payload used for mail.
// See https://docs.travis-ci.com/user/notifications/#webhooks-delivery-format
type BuildPayload struct {
	ID             int64      `json:"id"`
	Number         string     `json:"number"`
	Type           string     `json:"type"`
	Status         *int       `json:"status"`
	StatusMessage  string     `json:"status_message"`
	Repository     Repository `json:"repository"`
	BuildURL       string     `json:"build_url"`
	Branch         string     `json:"branch"`
	CompareURL     string     `json:"compare_url"`
	Commit         string     `json:"commit"`
	CommitterName  string     `json:"committer_name"`
	CommitterEmail string     `json:"committer_email"`
	Message        string     `json:"message"`
}

// Repository identifies the repository a build ran for.
type Repository struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	OwnerName string `json:"owner_name"`
	URL       string `json:"url"`
}
