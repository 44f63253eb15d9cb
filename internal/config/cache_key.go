package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey holds the JWT id of the user's active login.
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// TranscribeRateKey counts transcribe requests per user and minute window.
func (r *CacheKeyStruct) TranscribeRateKey(userID int, window int64) string {
	return fmt.Sprintf("ratelimit:transcribe:%d:%d", userID, window)
}

// LoginRateKey counts login attempts per client IP and minute window.
func (r *CacheKeyStruct) LoginRateKey(ip string, window int64) string {
	return fmt.Sprintf("ratelimit:login:%s:%d", ip, window)
}

var CacheKey = NewCacheKeyStruct()
