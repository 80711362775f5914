package model

type CalculationMessage struct {
	ID      int    `json:"id"`
	Level   string `json:"level"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

const (
	LevelCritical = "CRITICAL"
	LevelWarning  = "WARNING"
)

const (
	CodeClamped            = "CLAMPED"
	CodeUnknownProfession  = "UNKNOWN_PROFESSION"
	CodeEqualSplitFallback = "EQUAL_SPLIT_FALLBACK"
	CodeUnknownRole        = "UNKNOWN_ROLE"
	CodeCHWAutoSized       = "CHW_AUTO_SIZED"
)
