package llm

var ComposePrompt = composePrompt
