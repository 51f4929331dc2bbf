package schemas_test

import (
	"encoding/json"
	"testing"

	"github.com/jonathan/podcast-planner/internal/schemas"
	rootschemas "github.com/jonathan/podcast-planner/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllSchemaFiles_ValidJSON(t *testing.T) {
	for _, schemaFile := range rootschemas.All() {
		t.Run(schemaFile, func(t *testing.T) {
			data, err := rootschemas.FS.ReadFile(schemaFile)
			require.NoError(t, err, "should be able to read schema file")

			var schemaObj map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &schemaObj), "schema file should be valid JSON: %s", schemaFile)

			_, hasType := schemaObj["type"]
			_, hasSchema := schemaObj["$schema"]
			_, hasRequired := schemaObj["required"]
			assert.True(t, hasType && hasSchema && hasRequired,
				"schema should declare type, $schema and required")
		})
	}
}

func TestPodcastPlanSchema_Example(t *testing.T) {
	doc := `{
		"title": "Attention Is All You Need, Explained",
		"overview": "A friendly tour of transformers",
		"details": {"Audience": "General", "Tone": "Playful"},
		"segments": ["Intro", "Attention", "Impact"],
		"additional_requirements": ["Avoid equations"]
	}`
	assert.NoError(t, schemas.ValidateArtifact(rootschemas.PodcastPlan, doc))
}

func TestPodcastScriptSchema_RejectsEmptyContent(t *testing.T) {
	doc := `{"speakers": ["Host"], "content": []}`
	err := schemas.ValidateArtifact(rootschemas.PodcastScript, doc)
	require.Error(t, err)

	var validationErr *schemas.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "content", validationErr.Errors[0].Field)
}

func TestCritiqueSchema_RequiresFeedback(t *testing.T) {
	err := schemas.ValidateArtifact(rootschemas.Critique, `{"suggestions": ["x"]}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feedback")
}
