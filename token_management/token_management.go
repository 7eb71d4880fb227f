package token_management

import (
	"fmt"
	"sync"

	"github.com/meysamhadeli/focussync/constants/lipgloss"
	"github.com/meysamhadeli/focussync/token_management/contracts"
)

// charsPerToken approximates model tokenization: 1 token ~= 4 characters.
const charsPerToken = 4

// tokenManager keeps token estimates of the persisted snapshots
type tokenManager struct {
	mu          sync.Mutex
	lastTokens  int
	totalTokens int
	artifacts   int
}

// NewTokenManager creates a new token manager
func NewTokenManager() contracts.ITokenManagement {
	return &tokenManager{}
}

// CountTokens estimates the number of tokens in text. Non-empty text is at least one token.
func (tm *tokenManager) CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := len([]rune(text)) / charsPerToken
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TrackArtifact records the estimate for a snapshot that reached storage and returns it.
func (tm *tokenManager) TrackArtifact(serialized []byte) int {
	tokens := tm.CountTokens(string(serialized))

	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.lastTokens = tokens
	tm.totalTokens += tokens
	tm.artifacts++
	return tokens
}

func (tm *tokenManager) GetCurrentTokenUsage() (last int, total int, artifacts int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.lastTokens, tm.totalTokens, tm.artifacts
}

// DisplayTokens prints the size and token estimate of the last artifact in a box.
func (tm *tokenManager) DisplayTokens(path string, size int) {
	last, _, _ := tm.GetCurrentTokenUsage()
	tokenInfo := fmt.Sprintf("Snapshot: %s - Size: %d bytes - Tokens: ~%d", path, size, last)
	fmt.Println(lipgloss.BoxStyle.Render(tokenInfo))
}

func (tm *tokenManager) ClearToken() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.lastTokens = 0
	tm.totalTokens = 0
	tm.artifacts = 0
}
