package prompts

const classifyFormat = `Respond with a JSON object matching this exact structure:

{
  "threads": [
    {
      "category": "<category>",
      "messageIds": ["<id>", "<id>"],
      "summary": "<one or two sentences>",
      "docValueReason": "<why this thread does or does not matter for documentation>",
      "ragSearchCriteria": {
        "keywords": ["<keyword>"],
        "semanticQuery": "<natural language search query>"
      }
    }
  ]
}

Field constraints:
- category: one of troubleshooting, configuration, how-to, feature-explanation,
  bug-report, best-practice, or no-doc-value for threads without documentation value.
- messageIds: the IDs of the current messages in the thread, at least one.
  Every current message ID must appear in exactly one thread.
- summary: at most 500 characters.
- docValueReason: at most 500 characters.
- ragSearchCriteria: search terms for finding the documentation pages this
  thread relates to. Use empty values for no-doc-value threads.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Never include IDs from the earlier context
- Never invent message IDs`

const proposeFormat = `Respond with a JSON object matching this exact structure:

{
  "proposals": [
    {
      "updateType": "INSERT|UPDATE|DELETE|NONE",
      "page": "<file path of the page>",
      "section": "<heading of the section, if any>",
      "location": {"heading": "<heading>", "after": "<text the change follows>"},
      "suggestedText": "<the new or replacement markdown>",
      "reasoning": "<why this change is needed>",
      "sourceMessages": ["<message id>"],
      "warnings": ["<caveat for the reviewer>"]
    }
  ],
  "proposalsRejected": false,
  "rejectionReason": ""
}

Field constraints:
- proposals: at most {maxProposals} entries.
- updateType: INSERT adds new content, UPDATE replaces the named section,
  DELETE removes it, NONE records that no change is needed.
- page: a path from the provided documentation, or a new path for INSERT.
- suggestedText: required for INSERT and UPDATE, omitted for DELETE and NONE.
- reasoning: at most 2000 characters.
- proposalsRejected: true when the conversation does not justify any change;
  then proposals is empty and rejectionReason explains why.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- suggestedText is raw markdown, not wrapped in a code fence`

var formats = map[Stage]string{
	StageClassify: classifyFormat,
	StagePropose:  proposeFormat,
}

// Format returns the immutable response format for a stage.
func Format(stage Stage) (string, error) {
	text, ok := formats[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
