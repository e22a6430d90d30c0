package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// InterviewStateKey returns the cache key for a live interview's state
func (r *CacheKeyStruct) InterviewStateKey(sessionID string) string {
	return fmt.Sprintf("interview:%s:state", sessionID)
}

// LLMResponseKey returns the cache key for a cached LLM response
func (r *CacheKeyStruct) LLMResponseKey(hash string) string {
	return fmt.Sprintf("llm:cache:%s", hash)
}

var CacheKey = NewCacheKeyStruct()
