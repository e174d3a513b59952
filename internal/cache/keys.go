package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/noah-isme/point-planner/internal/planner"
)

type planKeyInput struct {
	Config      planner.Config  `json:"config"`
	Request     planner.Request `json:"request"`
	SchemaEpoch int             `json:"epoch"`
}

// planKeyEpoch changes whenever the cached Result shape changes.
const planKeyEpoch = 1

// PlanDigest returns a stable hex digest identifying a planning problem.
func PlanDigest(cfg planner.Config, req planner.Request) string {
	data, _ := json.Marshal(planKeyInput{Config: cfg, Request: req, SchemaEpoch: planKeyEpoch})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// KeyPlan returns the cache key for a computed plan.
func KeyPlan(digest string) string {
	return "plan:result:" + digest
}

// KeyPlanLock returns the lock key guarding computation of a plan.
func KeyPlanLock(digest string) string {
	return "plan:lock:" + digest
}
