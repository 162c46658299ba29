package handler

import (
	"roomchat/internal/app/chat"
	"roomchat/internal/configs"
	"roomchat/internal/pkg/limiter"
)

// AppDeps carries the long-lived services the HTTP handlers need.
type AppDeps struct {
	Coordinator *chat.Coordinator
	Config      *configs.AppConfig

	// ConnectLimiter throttles WebSocket upgrades per client IP.
	ConnectLimiter *limiter.IPRateLimiter
}
