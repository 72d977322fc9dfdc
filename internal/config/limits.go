package config

import "time"

// GenerationLimits are the fixed sampling parameters sent with every upstream request.
type GenerationLimits struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// StreamTimeouts bound how long the relay waits on the upstream provider.
type StreamTimeouts struct {
	UpstreamHeaders time.Duration // time to first response header
	StreamIdle      time.Duration // max gap between two upstream reads, 0 disables
}

func DefaultGenerationLimits() GenerationLimits {
	return GenerationLimits{
		Model:       "sarvam-m",
		Temperature: 0.7,
		MaxTokens:   500,
	}
}

func DefaultStreamTimeouts() StreamTimeouts {
	return StreamTimeouts{
		UpstreamHeaders: 60 * time.Second,
		StreamIdle:      60 * time.Second,
	}
}
