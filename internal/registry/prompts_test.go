package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPassbookPromptYearHints(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	prompt := PassbookPrompt(now, false)

	assert.Contains(t, prompt, "2026年 (令和8年)")
	assert.Contains(t, prompt, "濁点")
	assert.Contains(t, prompt, "マスクされている場合は0")
}

func TestPassbookPromptHandwritingPolicy(t *testing.T) {
	now := time.Now()

	assert.Contains(t, PassbookPrompt(now, false), "手書きと思われる文字や数字は無視し")
	assert.Contains(t, PassbookPrompt(now, true), "手書きの文字や数字も認識に含めてください")
}
