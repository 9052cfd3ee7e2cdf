package summarize

import "fmt"

// digestPromptTemplate is the fixed prompt used for every generation call:
// each chunk summary and the final combine pass. The numbered requirements
// are content instructions for the model, not steps this package performs.
const digestPromptTemplate = `# Role
You are a research assistant who is working for a busy executive.

# Task
Please provide a comprehensive summary of the following articles. Focus on the key points and main ideas.
The summary should be:
1. Clear and easy to understand
2. Ensure to include key takeaways from the articles
3. Capture the main topic and important details
4. Written in a professional tone
5. Include emojis to make it easier to read
6. Include links to the original articles
7. Group similar topics together
8. Highlight any conflicting information or different perspectives
9. End with a conclusion that ties everything together

# Output Format
Provide the summary as clean HTML suitable for an email body.

Articles:
%s`

// BuildDigestPrompt renders the digest prompt around the given article text.
// The same rendering wraps chunk text and, in the combine pass, the joined
// per-chunk summaries.
func BuildDigestPrompt(content string) string {
	return fmt.Sprintf(digestPromptTemplate, content)
}
