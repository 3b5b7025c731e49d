package services

import (
	"fmt"
	"strings"
)

const scoringRetryPreface = "The last response provided for this prompt was incorrect. Remember that I need a JSON response only, " +
	"with a 'candidates' attribute which is a list of JSON objects, each with the candidateId, the areas " +
	"described and an attribute highlights with a small text of the main highlights of the candidate. Let's try again: "

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildScoringPrompt creates the prompt for scoring one batch of candidates.
// candidatesJSON is the serialized batch. retry prepends a reminder of the
// expected output format.
func (pb *PromptBuilder) BuildScoringPrompt(jobDescription, candidatesJSON string, retry bool) string {
	var sb strings.Builder
	if retry {
		sb.WriteString(scoringRetryPreface)
	}

	sb.WriteString(fmt.Sprintf(`You are a Recruiter assistant, which is in charge of helping recruiters filter and evaluate candidates based on some data.

I need you to: Given a job description, evaluate candidates in some areas depending on their fit for the requirements described. Each area has a different weight and all sum up to 100. The areas are:
1. overallExperience (0-50) - Include skills and relevant experience
2. education (0-20) - Relevant education and certifications
3. questionAlignment (0-20) - How well the candidate's answers align with the questions asked
4. completion (0-10) - How complete the submitted form is, considering skills, experience, etc

Consider that: You will be given a job description text and a list of candidates in a normalized JSON structure, which includes experiences, education, name, and answers to questions. The list of candidates is part of a larger list, so don't base scoring on the amount of candidates, but on their real fit for the job. Some job descriptions are incomplete, so use your best judgment to fill in the gaps.

Return your response in the following JSON format:
{
  "candidates": [
    {
      "candidateId": "<the provided candidateId>",
      "overallExperience": <0-50>,
      "education": <0-20>,
      "questionAlignment": <0-20>,
      "completion": <0-10>,
      "highlights": "<main highlights of the candidate, max 40 words>"
    }
  ]
}

JOB DESCRIPTION:
%s

CANDIDATES:
%s`, jobDescription, candidatesJSON))

	return sb.String()
}

// extractJSON tries to extract JSON from text that might contain markdown or other formatting
func extractJSON(text string) string {
	// Remove markdown code blocks
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")
	endObj := strings.LastIndex(text, "}")
	endArr := strings.LastIndex(text, "]")

	if startObj != -1 && endObj != -1 && endObj > startObj {
		return text[startObj : endObj+1]
	} else if startArr != -1 && endArr != -1 && endArr > startArr {
		return text[startArr : endArr+1]
	}

	return text
}
