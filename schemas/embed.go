// Package schemas holds the JSON Schema documents for every structured
// artifact the pipeline exchanges with the language model.
package schemas

import "embed"

// FS contains all *.schema.json files in this directory.
//
//go:embed *.schema.json
var FS embed.FS

// Schema file names.
const (
	PodcastPlan   = "podcast_plan.schema.json"
	Critique      = "critique.schema.json"
	PodcastScript = "podcast_script.schema.json"
)

// All lists every embedded schema file.
func All() []string {
	return []string{PodcastPlan, Critique, PodcastScript}
}
