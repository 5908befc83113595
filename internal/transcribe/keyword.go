// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_transcribe

import "strings"

// answerEndKeywords are the spoken phrases that signal the candidate finished
// an answer. The interview flow is Korean-first; the list matches the phrases
// candidates actually close with.
var answerEndKeywords = []string{
	"이상입니다",
	"끝입니다",
	"마칩니다",
	"감사합니다",
	"이상이에요",
	"끝이에요",
	"완료입니다",
	"다했습니다",
	"이상",
	"끝",
	"완료",
	"마침",
	"답변 끝",
}

// ContainsEndKeyword reports whether the transcript contains any
// answer-completion phrase, case-insensitively.
func ContainsEndKeyword(transcript string) bool {
	lowered := strings.ToLower(transcript)
	for _, keyword := range answerEndKeywords {
		if strings.Contains(lowered, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}
