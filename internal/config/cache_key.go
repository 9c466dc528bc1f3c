package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey holds the jti of the user's current login.
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// DashboardKey caches the admin dashboard payload.
func (r *CacheKeyStruct) DashboardKey() string {
	return "dashboard:summary"
}

// AnalyticsKey caches the analytics payload.
func (r *CacheKeyStruct) AnalyticsKey() string {
	return "dashboard:analytics"
}

// LecturerDashboardKey caches the lecturer dashboard payload.
func (r *CacheKeyStruct) LecturerDashboardKey() string {
	return "dashboard:lecturer"
}

// DashboardKeys lists every cached dashboard payload; new predictions
// invalidate all of them.
func (r *CacheKeyStruct) DashboardKeys() []string {
	return []string{r.DashboardKey(), r.AnalyticsKey(), r.LecturerDashboardKey()}
}

// AuthAttemptsKey counts auth requests from one client IP per minute window.
func (r *CacheKeyStruct) AuthAttemptsKey(ip string, window int64) string {
	return fmt.Sprintf("ratelimit:auth:%s:%d", ip, window)
}

// AlertsChannel is the Redis PubSub channel for assessment events.
func (r *CacheKeyStruct) AlertsChannel() string {
	return "risk:alerts"
}

var CacheKey = NewCacheKeyStruct()
