package notify

import (
	"fmt"
	"strings"

	"github.com/onexay/travis-notify/internal/types"
)

// Verdict classifies a finished build for the mail subject.
type Verdict string

const (
	VerdictOK      Verdict = "OK"
	VerdictFailed  Verdict = "FAILED"
	VerdictUnknown Verdict = "UNKNOWN"
)

var failedMessages = map[string]struct{}{
	"broken":        {},
	"failed":        {},
	"still failing": {},
}

// Classify derives the verdict: status 0 is OK; otherwise the status
// message decides between FAILED and UNKNOWN.
func Classify(p types.BuildPayload) Verdict {
	if p.Status != nil && *p.Status == 0 {
		return VerdictOK
	}
	if _, ok := failedMessages[strings.ToLower(strings.TrimSpace(p.StatusMessage))]; ok {
		return VerdictFailed
	}
	return VerdictUnknown
}

// Subject renders "<VERDICT>: <repo> [Travis-CI]".
func Subject(v Verdict, repoName string) string {
	return fmt.Sprintf("%s: %s [Travis-CI]", v, repoName)
}
