package core

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

type TurnID string

func NewTurnID() TurnID {
	return TurnID("turn_" + timestamp() + "_" + randomSeed())
}

func timestamp() string {
	return time.Now().UTC().Format("20060102T150405.000000000")
}

func randomSeed() string {
	buffer := make([]byte, 6)
	_, _ = rand.Read(buffer)
	return hex.EncodeToString(buffer)
}
