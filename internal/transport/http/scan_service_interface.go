package http

import (
	"context"

	"github.com/bockybocky/charles-bond-sniper/internal/dataprocessing"
	"github.com/bockybocky/charles-bond-sniper/internal/services"
	"github.com/bockybocky/charles-bond-sniper/pkg/contracts/domain"
)

// ScanServiceInterface defines what the scan handler needs from the service
// layer. Kept as an interface so handler tests can stub the pipeline.
type ScanServiceInterface interface {
	Options(over services.ScanOverrides) (dataprocessing.ClassifierOptions, error)
	Scan(ctx context.Context, primary, secondary []byte, opts dataprocessing.ClassifierOptions) (*domain.ScanResult, error)
}
