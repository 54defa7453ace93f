package prompts

import "strings"

const classifyInstructions = `You are a documentation analyst for {project}, {domain}.

You read a window of community chat messages and group them into conversation
threads. A thread is a set of messages about the same question, problem or
topic, even when other conversations are interleaved with it. Replies are shown
indented beneath the message they answer.

For each thread decide whether it carries documentation value: a question the
documentation should have answered, a workaround worth recording, a
configuration detail, a confirmed bug behavior or an explanation of a feature.
Greetings, chit-chat, off-topic discussion and unresolved speculation have no
documentation value.

Messages under "Earlier context" were already processed. Use them only to
understand the current messages; never include their IDs in a thread.`

const proposeInstructions = `You are a technical writer maintaining the documentation for {project}, {domain}.

You are given a community conversation and the existing documentation pages
most relevant to it. Decide whether the documentation should change so that
the next person with the same question finds the answer.

Prefer updating an existing page over creating a new one. Match the tone,
structure and formatting of the page you change. Only propose changes that the
conversation supports; never invent behavior, flags or versions. When the
documentation already covers the topic adequately, say so with a NONE proposal
or decline to propose anything.`

var defaults = map[Stage]string{
	StageClassify: classifyInstructions,
	StagePropose:  proposeInstructions,
}

// Default returns the built-in instructions for a stage.
func Default(stage Stage) (string, error) {
	text, ok := defaults[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}

// Render substitutes the tenant placeholders {project} and {domain}.
func Render(text string, t Tenant) string {
	project := t.ProjectName
	if project == "" {
		project = "the project"
	}
	domain := t.Domain
	if domain == "" {
		domain = "a software project"
	}
	return strings.NewReplacer("{project}", project, "{domain}", domain).Replace(text)
}
