package ports

import (
	"simvote/domain/scenario"
)

// ScenarioReader loads a simulator results CSV and its sibling log
type ScenarioReader interface {
	Load(csvPath string) (*scenario.Scenario, error)
}
