package notify

import (
	"strings"
	"text/template"

	"github.com/onexay/travis-notify/internal/types"
)

// Body layout follows the Zope developer community build report format.
var bodyTemplate = template.Must(template.New("body").Parse(`Status: {{.Verdict}}

Build: {{.BuildURL}} - {{.StatusMessage}}

Reason: push

Branch: {{.Branch}}

Commit URL: {{.CompareURL}}
Committer: {{.CommitterName}} <{{.CommitterEmail}}>
Message: {{.Message}}
`))

type bodyData struct {
	types.BuildPayload
	Verdict Verdict
}

// Body renders the plain-text report for p.
func Body(v Verdict, p types.BuildPayload) (string, error) {
	var sb strings.Builder
	if err := bodyTemplate.Execute(&sb, bodyData{BuildPayload: p, Verdict: v}); err != nil {
		return "", err
	}
	return sb.String(), nil
}
