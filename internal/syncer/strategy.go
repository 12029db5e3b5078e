package syncer

import (
	"fmt"
	"strings"
)

// Strategy selects how the global synchronizer searches for its anchor.
type Strategy string

const (
	StrategyAuto        Strategy = "auto"
	StrategyFirstLine   Strategy = "first-line"
	StrategyScan        Strategy = "scan"
	StrategyTranslation Strategy = "translation"
	StrategyManual      Strategy = "manual"
)

// ParseStrategy converts a config or flag value into a Strategy.
func ParseStrategy(value string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(value))) {
	case StrategyAuto, "":
		return StrategyAuto, nil
	case StrategyFirstLine:
		return StrategyFirstLine, nil
	case StrategyScan:
		return StrategyScan, nil
	case StrategyTranslation:
		return StrategyTranslation, nil
	case StrategyManual:
		return StrategyManual, nil
	default:
		return "", fmt.Errorf("unknown synchronization strategy %q", value)
	}
}
