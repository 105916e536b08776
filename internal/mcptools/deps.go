// Package mcptools exposes the resolution agent's tools over the Model
// Context Protocol, so external agents can drive order lookups, refunds, and
// escalations through a stdio server.
package mcptools

import (
	"log/slog"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/escalate"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/nlu"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/refund"
)

// Dependencies holds shared services for tool handlers.
// Passed to handler factories via closure capture.
type Dependencies struct {
	Refund     *refund.Service
	Escalate   *escalate.Service
	Classifier nlu.Classifier
	Logger     *slog.Logger
}
