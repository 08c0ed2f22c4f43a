// internal/config/constants.go
package config

const (
	AppName    = "superteam-academy"
	AppVersion = "1.0.0"
)

const (
	DefaultServerPort  = ":8080"
	DefaultLogLevel    = "info"
	DefaultAuthEnabled = true
	DefaultMailerType  = "log"

	DefaultSolanaRPCEndpoint = "https://api.devnet.solana.com"
	DefaultSolanaNetwork     = "devnet"
)

// Gamification constants. The check-in award and achievement thresholds
// are part of the product contract, not tunables.
const (
	DailyCheckInXP = 10
)
