package notify

import (
	"fmt"
	"strings"

	"github.com/obentoo/versioneye-slack/internal/slack"
	"github.com/obentoo/versioneye-slack/internal/versioneye"
)

// PackageURLBase is the site prefix for package links.
const PackageURLBase = "https://www.versioneye.com"

// PackageURL links to a package page: base/language/prod_key, where every '/'
// in prod_key becomes ':'.
func PackageURL(base string, dep versioneye.Dependency) string {
	return fmt.Sprintf("%s/%s/%s",
		strings.TrimRight(base, "/"), dep.Language, strings.ReplaceAll(dep.ProdKey, "/", ":"))
}

// VulnerabilityLabel renders the vulnerability flag; "yes" is emphasized.
func VulnerabilityLabel(vulnerable bool) string {
	if vulnerable {
		return "*yes*"
	}
	return "no"
}

// BuildAttachment formats one outdated dependency.
func BuildAttachment(base string, dep versioneye.Dependency) slack.Attachment {
	return slack.Attachment{
		Fallback: fmt.Sprintf("Package: %s (%s) current version: %s, our version: %s",
			dep.Name, dep.Language, dep.VersionCurrent, dep.VersionRequested),
		Title:     fmt.Sprintf("%s (%s)", dep.Name, dep.Language),
		TitleLink: PackageURL(base, dep),
		Color:     "danger",
		Fields: []slack.Field{
			{Title: "Security vulnerabilities", Value: VulnerabilityLabel(dep.Vulnerable)},
			{Title: "Current version", Value: dep.VersionCurrent, Short: true},
			{Title: "Required version", Value: dep.VersionRequested, Short: true},
		},
		MarkdownIn: []string{"fields"},
	}
}

// BuildMessage assembles one message with an attachment per dependency.
func BuildMessage(channel, base string, deps []versioneye.Dependency) slack.Message {
	if channel == "" {
		channel = slack.DefaultChannel
	}

	attachments := make([]slack.Attachment, 0, len(deps))
	for _, dep := range deps {
		attachments = append(attachments, BuildAttachment(base, dep))
	}

	return slack.Message{
		Channel:     channel,
		Username:    slack.DefaultUsername,
		Attachments: attachments,
		IconURL:     slack.DefaultIconURL,
	}
}
